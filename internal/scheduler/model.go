package scheduler

import "github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"

// Candidate: 某一天可以排班的成员，以及他在这一天申报的所有空闲时间段
type Candidate struct {
	UserID    string            `json:"userId"`
	UserName  string            `json:"userName"`
	UserEmail string            `json:"userEmail"`
	Windows   []domain.TimeSlot `json:"windows"`
}

// BoardDay: 排班面板中的一天
type BoardDay struct {
	Date       string      `json:"date"`
	Candidates []Candidate `json:"candidates"`
}

type PreviewEntry struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Valid     bool   `json:"valid"` // 开始和结束时间是否都落在同一个申报时间段内
}

type PreviewDay struct {
	Date    string         `json:"date"`
	Entries []PreviewEntry `json:"entries"`
}

// pick: 某个成员在某一天被选中，并使用其中一个申报时间段
type pick struct {
	candidate int // 在 BoardDay.Candidates 中的下标
	window    int // 在 Candidate.Windows 中的下标
	hours     float64
}

// Gene: 表示对某一天的排班决策
type Gene struct {
	day   int // 在 board 中的下标
	picks []pick
}

// Chromosome: 整个排班建议
type Chromosome struct {
	genes   []*Gene
	fitness float64
}

// 遗传算法参数
type Parameters struct {
	PerDay         int32   `json:"perDay" validate:"min=1"`                            // 每天需要的人数
	PopulationSize int32   `json:"populationSize" validate:"min=2,max=500"`            // 种群大小
	MaxGenerations int32   `json:"maxGenerations" validate:"min=1,max=2000"`           // 最大迭代次数
	CrossoverRate  float64 `json:"crossoverRate" validate:"min=0,max=1"`               // 交叉概率
	MutationRate   float64 `json:"mutationRate" validate:"min=0,max=1"`                // 变异概率
	EliteCount     int32   `json:"eliteCount" validate:"min=0,ltfield=PopulationSize"` // 精英数量
	FairnessWeight float64 `json:"fairnessWeight" validate:"min=0"`                    // 公平性权重
	Seed           int64   `json:"seed"`                                               // 为 0 时使用当前时间
}

func DefaultParameters() Parameters {
	return Parameters{
		PerDay:         2,
		PopulationSize: 60,
		MaxGenerations: 150,
		CrossoverRate:  0.8,
		MutationRate:   0.1,
		EliteCount:     2,
		FairnessWeight: 1,
	}
}
