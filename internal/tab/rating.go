package tab

import "math"

// RatingScale 评分差对期望胜率的影响尺度
const RatingScale = 25.0 / 3

// UpdateRatings 按房间名次做多队 Elo 更新
// 每支队伍与同房其余队伍两两比较，队伍评分取队员平均，增量平均分摊到 k/(n-1)，队员获得相同增量。
// ratings 中缺失的成员按 base 计。返回新的评分表，不修改入参。
func UpdateRatings(ratings map[string]float64, base, k float64, layout Layout, res RoomResult) map[string]float64 {
	out := make(map[string]float64, len(ratings))
	for id, r := range ratings {
		out[id] = r
	}
	if !res.Decided || len(res.Teams) < 2 {
		return out
	}

	rating := func(id string) float64 {
		if r, ok := out[id]; ok {
			return r
		}
		return base
	}
	members := make(map[string][]string)
	for _, t := range layout.Teams {
		members[t.TeamID] = t.Speakers
	}

	strength := make(map[string]float64, len(res.Teams))
	for _, t := range res.Teams {
		ms := members[t.TeamID]
		if len(ms) == 0 {
			continue
		}
		var sum float64
		for _, m := range ms {
			sum += rating(m)
		}
		strength[t.TeamID] = sum / float64(len(ms))
	}

	n := float64(len(res.Teams))
	delta := make(map[string]float64, len(res.Teams))
	for _, a := range res.Teams {
		for _, b := range res.Teams {
			if a.TeamID == b.TeamID {
				continue
			}
			expected := 1 / (1 + math.Exp((strength[b.TeamID]-strength[a.TeamID])/RatingScale))
			actual := 0.5
			switch {
			case a.Points > b.Points:
				actual = 1
			case a.Points < b.Points:
				actual = 0
			}
			delta[a.TeamID] += k / (n - 1) * (actual - expected)
		}
	}

	for teamID, d := range delta {
		for _, m := range members[teamID] {
			out[m] = rating(m) + d
		}
	}
	return out
}
