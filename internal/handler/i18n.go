package handler

import (
	"net/http"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	ja_translations "github.com/go-playground/validator/v10/translations/ja"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/utils"
	"golang.org/x/text/language"
)

// translators 根据 Accept-Language 选择校验错误信息的语言，第一个是默认语言
type translators struct {
	matcher language.Matcher
	list    []ut.Translator
}

func newTranslators(validate *validator.Validate) (*translators, error) {
	supported := []struct {
		tag      language.Tag
		locale   locales.Translator
		register func(*validator.Validate, ut.Translator) error
	}{
		{language.Chinese, zh.New(), zh_translations.RegisterDefaultTranslations},
		{language.English, en.New(), en_translations.RegisterDefaultTranslations},
		{language.Japanese, ja.New(), ja_translations.RegisterDefaultTranslations},
	}

	tags := make([]language.Tag, len(supported))
	list := make([]ut.Translator, len(supported))
	for i, s := range supported {
		uni := ut.New(s.locale, s.locale)
		trans, _ := uni.GetTranslator(s.locale.Locale())
		if err := s.register(validate, trans); err != nil {
			return nil, err
		}
		if err := utils.RegisterTranslations(validate, trans, s.locale.Locale()); err != nil {
			return nil, err
		}
		tags[i] = s.tag
		list[i] = trans
	}

	return &translators{
		matcher: language.NewMatcher(tags),
		list:    list,
	}, nil
}

func (h *Handler) translatorFor(r *http.Request) ut.Translator {
	_, index := language.MatchStrings(h.translators.matcher, r.Header.Get("Accept-Language"))
	return h.translators.list[index]
}
