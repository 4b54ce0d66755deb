package scheduler

import (
	"math"
	"slices"
)

// randomInitChromosome 随机初始化一个染色体
func (s *Scheduler) randomInitChromosome() *Chromosome {
	genes := make([]*Gene, 0, len(s.board))

	for d, day := range s.board {
		// 打乱候选顺序后取前 PerDay 个
		order := s.rng.Perm(len(day.Candidates))
		chosenNum := min(int(s.parameters.PerDay), len(order))

		picks := make([]pick, 0, chosenNum)
		for _, ci := range order[:chosenNum] {
			picks = append(picks, s.randomPick(d, ci))
		}

		genes = append(genes, &Gene{day: d, picks: picks})
	}

	return &Chromosome{genes: genes}
}

// randomPick 为第 d 天的第 ci 个候选随机选择一个申报时间段
func (s *Scheduler) randomPick(d, ci int) pick {
	windows := s.board[d].Candidates[ci].Windows
	wi := s.rng.Intn(len(windows))
	return pick{
		candidate: ci,
		window:    wi,
		hours:     windowHours(windows[wi].From, windows[wi].To),
	}
}

/**
 * 计算染色体的适应度
 * fitness = - notWorkPenalty - FairnessWeight * fairnessPenalty
 * 其中:
 * 		1. notWorkPenalty 为未工作惩罚（提交了空闲时间却一个班都没有的成员数）
 * 		2. fairnessPenalty 为公平性惩罚（各成员工时的方差）
 * 		3. FairnessWeight 为公平性权重，用于平衡覆盖率和公平性（由输入参数决定）
 */
func (s *Scheduler) calcFitness(ch *Chromosome) {
	userWorkCnt := make(map[string]float64, len(s.users))
	for _, u := range s.users {
		userWorkCnt[u] = 0
	}

	for _, gene := range ch.genes {
		for _, p := range gene.picks {
			userWorkCnt[s.board[gene.day].Candidates[p.candidate].UserID] += p.hours
		}
	}

	notWorkPenalty := 0.0
	avgWorkCnt := 0.0
	for _, workCnt := range userWorkCnt {
		if workCnt == 0 {
			notWorkPenalty += 1
		}
		avgWorkCnt += workCnt
	}
	avgWorkCnt /= float64(len(userWorkCnt))

	variance := 0.0
	for _, workCnt := range userWorkCnt {
		variance += math.Pow(workCnt-avgWorkCnt, 2)
	}
	variance /= float64(len(userWorkCnt))

	ch.fitness = -notWorkPenalty - s.parameters.FairnessWeight*variance
}

// 使用轮盘赌来进行选择，适应度都不大于 0，先平移到正数区间
func (s *Scheduler) selectByRoulette(pop []*Chromosome) *Chromosome {
	minFit := math.MaxFloat64
	for _, ch := range pop {
		minFit = min(minFit, ch.fitness)
	}

	const eps = 1e-9
	sumFit := 0.0
	for _, ch := range pop {
		sumFit += ch.fitness - minFit + eps
	}
	pick := s.rng.Float64() * sumFit
	partial := 0.0

	for _, ch := range pop {
		partial += ch.fitness - minFit + eps
		if partial >= pick {
			return ch
		}
	}

	// 理论上不会运行到这个地方
	return pop[len(pop)-1]
}

// 单点交叉，交换 point 之后的所有天
func (s *Scheduler) singlePointCrossover(ch1 *Chromosome, ch2 *Chromosome) {
	length := len(ch1.genes)
	if length != len(ch2.genes) || length == 0 {
		return
	}

	point := s.rng.Intn(length)
	for i := point; i < length; i++ {
		ch1.genes[i], ch2.genes[i] = ch2.genes[i], ch1.genes[i]
	}
}

// 变异
// 一定概率把某一天中的一个人换成另一个没有被选中的候选，或者换一个时间段
func (s *Scheduler) mutate(ch *Chromosome) {
	for _, gene := range ch.genes {
		if len(gene.picks) == 0 || s.rng.Float64() > s.parameters.MutationRate {
			continue
		}

		i := s.rng.Intn(len(gene.picks))
		day := s.board[gene.day]

		unused := make([]int, 0, len(day.Candidates))
		for ci := range day.Candidates {
			if !slices.ContainsFunc(gene.picks, func(p pick) bool { return p.candidate == ci }) {
				unused = append(unused, ci)
			}
		}

		if len(unused) > 0 {
			gene.picks[i] = s.randomPick(gene.day, unused[s.rng.Intn(len(unused))])
		} else {
			gene.picks[i] = s.randomPick(gene.day, gene.picks[i].candidate)
		}
	}
}

// clone 深拷贝，防止繁殖的过程中修改到其他染色体共享的基因
func (ch *Chromosome) clone() *Chromosome {
	genes := make([]*Gene, len(ch.genes))
	for i, g := range ch.genes {
		genes[i] = &Gene{day: g.day, picks: slices.Clone(g.picks)}
	}
	return &Chromosome{genes: genes, fitness: ch.fitness}
}

func windowHours(from, to string) float64 {
	h, err := ShiftHours(from, to)
	if err != nil {
		return 0
	}
	return h
}
