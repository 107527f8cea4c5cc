package service

import (
	"context"
	"sort"

	"spartab/internal/dto"
	"spartab/internal/model"
	"spartab/internal/repository"
)

type members map[string]model.Member

// memberIndex 系列内全部成员（含已停用），按 ID 索引
func memberIndex(ctx context.Context, repo *repository.Repository, seriesID string) (members, error) {
	list, err := repo.Member.ListBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	idx := make(members, len(list))
	for _, m := range list {
		idx[m.MemberID] = m
	}
	return idx, nil
}

func (ms members) brief(id string) dto.MemberBrief {
	m, ok := ms[id]
	if !ok {
		return dto.MemberBrief{ID: id}
	}
	return dto.MemberBrief{ID: id, Name: m.Name, Rating: m.Rating}
}

func (ms members) names() map[string]string {
	out := make(map[string]string, len(ms))
	for id, m := range ms {
		out[id] = m.Name
	}
	return out
}

var judgeStatusOrder = map[string]int{
	model.JudgeStatusChair:    0,
	model.JudgeStatusPanelist: 1,
	model.JudgeStatusTrainee:  2,
}

// sortJudges 主裁在前，其后边裁、见习
func sortJudges(js []dto.ReleasedJudge) {
	sort.SliceStable(js, func(i, j int) bool {
		return judgeStatusOrder[js[i].Status] < judgeStatusOrder[js[j].Status]
	})
}
