package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrUnknownPostType = errors.New("未知的投稿类型")

type PostType string

const (
	PostTypeShiftSurvey       PostType = "shift_survey"
	PostTypeSubstituteRequest PostType = "shift_substitute_request"
	PostTypeSubstituteResult  PostType = "shift_substitute_result"
	PostTypeShiftResult       PostType = "shift_result"
)

type SurveyStatus string

const SurveyStatusPublished SurveyStatus = "published"

// PostBody 是四种投稿的具体内容，只能是本包中定义的类型
type PostBody interface {
	PostType() PostType
}

type ShiftSurvey struct {
	Title       string       `json:"title"`
	StartDate   string       `json:"startDate"`
	EndDate     string       `json:"endDate"`
	Deadline    string       `json:"deadline"`
	OpeningTime string       `json:"openingTime"`
	ClosingTime string       `json:"closingTime"`
	Status      SurveyStatus `json:"status,omitempty"`
	PublishedAt *time.Time   `json:"publishedAt,omitempty"`
	PublishedBy string       `json:"publishedBy,omitempty"`
}

type SubstituteRequest struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Reason      string `json:"reason"`
	AuthorName  string `json:"authorName"`
	AuthorEmail string `json:"authorEmail"`
}

type SubstituteResult struct {
	Title                 string `json:"title"`
	OriginalPostID        string `json:"originalPostId"`
	OriginalRequesterID   string `json:"originalRequesterId"`
	OriginalRequesterName string `json:"originalRequesterName"`
	SubstituteID          string `json:"substituteId"`
	SubstituteName        string `json:"substituteName"`
	Date                  string `json:"date"`
	StartTime             string `json:"startTime"`
	EndTime               string `json:"endTime"`
	Reason                string `json:"reason"`
	ShiftUpdated          bool   `json:"shiftUpdated"`
}

type ShiftResult struct {
	Title          string    `json:"title"`
	OriginalPostID string    `json:"originalPostId"`
	StartDate      string    `json:"startDate"`
	EndDate        string    `json:"endDate"`
	TotalShifts    int       `json:"totalShifts"`
	UniqueMembers  int       `json:"uniqueMembers"`
	PublishedAt    time.Time `json:"publishedAt"`
}

func (*ShiftSurvey) PostType() PostType       { return PostTypeShiftSurvey }
func (*SubstituteRequest) PostType() PostType { return PostTypeSubstituteRequest }
func (*SubstituteResult) PostType() PostType  { return PostTypeSubstituteResult }
func (*ShiftResult) PostType() PostType       { return PostTypeShiftResult }

// Post 在 JSON 中是扁平的对象：公共字段、type 以及具体内容的字段
type Post struct {
	ID        string
	GroupID   string
	CreatedBy string
	CreatedAt time.Time
	Body      PostBody
}

type postHeader struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"groupId"`
	Type      PostType  `json:"type"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Post) Type() PostType {
	if p.Body == nil {
		return ""
	}
	return p.Body.PostType()
}

func (p *Post) Survey() (*ShiftSurvey, bool) {
	s, ok := p.Body.(*ShiftSurvey)
	return s, ok
}

func (p *Post) SubstituteRequest() (*SubstituteRequest, bool) {
	s, ok := p.Body.(*SubstituteRequest)
	return s, ok
}

func (p *Post) ShiftResult() (*ShiftResult, bool) {
	s, ok := p.Body.(*ShiftResult)
	return s, ok
}

// IsPublished 只有已经采用过排班的调查投稿返回 true
func (p *Post) IsPublished() bool {
	s, ok := p.Survey()
	return ok && s.Status == SurveyStatusPublished
}

// Title 返回投稿的标题，交代申请没有标题
func (p *Post) Title() string {
	switch b := p.Body.(type) {
	case *ShiftSurvey:
		return b.Title
	case *SubstituteResult:
		return b.Title
	case *ShiftResult:
		return b.Title
	}
	return ""
}

func (p Post) MarshalJSON() ([]byte, error) {
	if p.Body == nil {
		return nil, fmt.Errorf("投稿 %s 缺少内容", p.ID)
	}

	header, err := json.Marshal(postHeader{
		ID:        p.ID,
		GroupID:   p.GroupID,
		Type:      p.Body.PostType(),
		CreatedBy: p.CreatedBy,
		CreatedAt: p.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(p.Body)
	if err != nil {
		return nil, err
	}

	body = bytes.TrimSpace(body)
	if len(body) <= 2 {
		return header, nil
	}

	// 拼接两个对象：去掉 header 的 '}' 和 body 的 '{'
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header[:len(header)-1]...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}

func (p *Post) UnmarshalJSON(data []byte) error {
	header := postHeader{}
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}

	var body PostBody
	switch header.Type {
	case PostTypeShiftSurvey:
		body = &ShiftSurvey{}
	case PostTypeSubstituteRequest:
		body = &SubstituteRequest{}
	case PostTypeSubstituteResult:
		body = &SubstituteResult{}
	case PostTypeShiftResult:
		body = &ShiftResult{}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPostType, header.Type)
	}

	if err := json.Unmarshal(data, body); err != nil {
		return err
	}

	p.ID = header.ID
	p.GroupID = header.GroupID
	p.CreatedBy = header.CreatedBy
	p.CreatedAt = header.CreatedAt
	p.Body = body
	return nil
}
