// Package scheduler 包含排班面板、预览、采用、交代匹配以及工资统计的计算逻辑，
// 另外用遗传算法为管理员生成一份工时尽量均衡的排班建议
package scheduler

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/sysu-ecnc-dev/group-shift/backend/internal/domain"
)

var ErrNoCandidates = errors.New("还没有成员提交空闲时间")

type Scheduler struct {
	parameters *Parameters
	board      []BoardDay
	users      []string // 在面板上出现过的所有成员
	rng        *rand.Rand
}

func New(parameters *Parameters, board []BoardDay) (*Scheduler, error) {
	s := &Scheduler{
		parameters: parameters,
		board:      make([]BoardDay, 0, len(board)),
		users:      make([]string, 0),
	}

	seen := make(map[string]struct{})
	for _, day := range board {
		if len(day.Candidates) == 0 {
			continue
		}
		s.board = append(s.board, day)
		for _, c := range day.Candidates {
			if len(c.Windows) == 0 {
				return nil, fmt.Errorf("成员 %s 在 %s 没有申报时间段", c.UserID, day.Date)
			}
			if _, ok := seen[c.UserID]; !ok {
				seen[c.UserID] = struct{}{}
				s.users = append(s.users, c.UserID)
			}
		}
	}

	if len(s.users) == 0 {
		return nil, ErrNoCandidates
	}

	seed := parameters.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))

	return s, nil
}

func (s *Scheduler) Schedule() ([]domain.DayAssignment, error) {
	popSize := int(s.parameters.PopulationSize)

	// 生成初始种群
	pop := make([]*Chromosome, popSize)
	for i := range popSize {
		pop[i] = s.randomInitChromosome()
		s.calcFitness(pop[i])
	}

	bestChromosomeEver := &Chromosome{fitness: -math.MaxFloat64}

	for range s.parameters.MaxGenerations {
		// 找到本代最佳样本
		genBest := pop[0]
		for _, ch := range pop[1:] {
			if ch.fitness > genBest.fitness {
				genBest = ch
			}
		}
		if genBest.fitness > bestChromosomeEver.fitness {
			bestChromosomeEver = genBest.clone()
		}

		// 繁殖
		newPop := make([]*Chromosome, 0, popSize)

		// 保留精英
		slices.SortFunc(pop, func(a, b *Chromosome) int {
			return cmp.Compare(b.fitness, a.fitness)
		})
		for _, elite := range pop[:min(int(s.parameters.EliteCount), popSize)] {
			newPop = append(newPop, elite.clone())
		}

		// 在剩余的染色体中进行交叉和变异
		for len(newPop) < popSize {
			p1 := s.selectByRoulette(pop).clone()
			p2 := s.selectByRoulette(pop).clone()

			if s.rng.Float64() < s.parameters.CrossoverRate {
				s.singlePointCrossover(p1, p2)
			}

			s.mutate(p1)
			s.mutate(p2)

			newPop = append(newPop, p1)
			if len(newPop) < popSize {
				newPop = append(newPop, p2)
			}
		}

		for i := range popSize {
			pop[i] = newPop[i]
			s.calcFitness(pop[i])
		}
	}

	for _, ch := range pop {
		if ch.fitness > bestChromosomeEver.fitness {
			bestChromosomeEver = ch.clone()
		}
	}

	result := s.toAssignments(bestChromosomeEver)

	// 结果中的每个时间段都必须来自成员自己的申报
	for _, p := range Preview(s.board, result) {
		for _, e := range p.Entries {
			if !e.Valid {
				return nil, fmt.Errorf("排班建议中 %s 的 %s %s-%s 不在申报时间内", p.Date, e.UserID, e.StartTime, e.EndTime)
			}
		}
	}

	return result, nil
}

func (s *Scheduler) toAssignments(ch *Chromosome) []domain.DayAssignment {
	result := make([]domain.DayAssignment, 0, len(ch.genes))
	for _, gene := range ch.genes {
		day := s.board[gene.day]
		a := domain.DayAssignment{Date: day.Date, Shifts: make([]domain.AssignedShift, 0, len(gene.picks))}
		for _, p := range gene.picks {
			c := day.Candidates[p.candidate]
			w := c.Windows[p.window]
			a.Shifts = append(a.Shifts, domain.AssignedShift{
				UserID:    c.UserID,
				UserName:  c.UserName,
				UserEmail: c.UserEmail,
				StartTime: w.From,
				EndTime:   w.To,
			})
		}
		slices.SortStableFunc(a.Shifts, func(x, y domain.AssignedShift) int {
			return cmp.Compare(x.StartTime, y.StartTime)
		})
		result = append(result, a)
	}
	return result
}
