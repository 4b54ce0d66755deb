package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[mrand.Intn(len(commonSurnames))]
	nameLength := mrand.Intn(2) + 1
	name := ""

	for range nameLength {
		name += commonNameCharacters[mrand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, py := range pinyinArray {
		length := mrand.Intn(len(py)) + 1
		username += py[:length]
	}

	digitsLength := mrand.Intn(3) + 1
	for range digitsLength {
		username += string(digits[mrand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomUser 生成一个测试用户，邮箱由名字的拼音拼出
func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	name := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(name)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Email:        username + "@" + emailDomainName,
		Name:         name,
		PasswordHash: string(passwordHash),
	}, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", mrand.Intn(1000000))
}

var inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateInviteCode 生成大写字母和数字组成的邀请码
func GenerateInviteCode(length int) (string, error) {
	code := make([]byte, length)
	limit := big.NewInt(int64(len(inviteAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}

// GenerateRandomPreferences 在调查的每一天随机决定是否有空，有空时在营业时间内随机取一到两个时间段
func GenerateRandomPreferences(s *domain.ShiftSurvey) ([]domain.ShiftPreference, error) {
	dates, err := SurveyDates(s)
	if err != nil {
		return nil, err
	}

	var opening, closing int
	if _, err := fmt.Sscanf(s.OpeningTime, "%d:", &opening); err != nil {
		return nil, err
	}
	if _, err := fmt.Sscanf(s.ClosingTime, "%d:", &closing); err != nil {
		return nil, err
	}
	if closing-opening < 2 {
		return nil, fmt.Errorf("营业时间 %s-%s 太短", s.OpeningTime, s.ClosingTime)
	}

	prefs := make([]domain.ShiftPreference, 0, len(dates))
	for _, date := range dates {
		if mrand.Intn(3) == 0 {
			continue
		}

		// 营业时间按整点一分为二，每一半里随机取一段
		mid := opening + (closing-opening)/2
		halves := [][2]int{{opening, mid}, {mid, closing}}

		slots := make([]domain.TimeSlot, 0, 2)
		for _, half := range halves {
			if half[1]-half[0] < 1 || mrand.Intn(2) == 0 {
				continue
			}
			from := half[0] + mrand.Intn(half[1]-half[0])
			to := from + 1 + mrand.Intn(half[1]-from)
			slots = append(slots, domain.TimeSlot{
				From: fmt.Sprintf("%02d:00", from),
				To:   fmt.Sprintf("%02d:00", to),
			})
		}
		if len(slots) == 0 {
			continue
		}

		prefs = append(prefs, domain.ShiftPreference{Date: date, TimeSlots: slots})
	}

	return prefs, nil
}
