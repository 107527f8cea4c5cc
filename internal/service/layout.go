package service

import (
	"spartab/internal/model"
	"spartab/internal/tab"
)

// roomLayout 已发布房间的结构，供选票校验与成绩计算使用
func roomLayout(room *model.Room, speakersPerTeam int) tab.Layout {
	layout := tab.Layout{
		RoomID:          room.RoomID,
		RoomIndex:       room.RoomIndex,
		SpeakersPerTeam: speakersPerTeam,
		Teams:           make([]tab.LayoutTeam, 0, len(room.Teams)),
	}
	for _, team := range room.Teams {
		lt := tab.LayoutTeam{TeamID: team.TeamID, Position: team.Position}
		for _, sp := range team.Speakers {
			lt.Speakers = append(lt.Speakers, sp.MemberID)
		}
		layout.Teams = append(layout.Teams, lt)
	}
	return layout
}

// tabBallots 附带提交时裁判席位的选票日志
func tabBallots(room *model.Room, ballots []model.Ballot) []tab.Ballot {
	status := make(map[string]string, len(room.Judges))
	for _, j := range room.Judges {
		status[j.JudgeAssignmentID] = j.Status
	}
	out := make([]tab.Ballot, 0, len(ballots))
	for _, b := range ballots {
		out = append(out, tab.Ballot{
			BallotID:    b.BallotID,
			JudgeID:     b.MemberID,
			JudgeStatus: status[b.JudgeAssignmentID],
			CreatedAt:   b.CreatedAt,
			Entries:     tabEntries(b.Entries),
		})
	}
	return out
}

func tabEntries(entries []model.BallotEntry) []tab.Entry {
	out := make([]tab.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, tab.Entry{
			TeamID:    e.TeamID,
			SpeakerID: e.SpeakerMemberID,
			Position:  e.Position,
			Score:     e.Score,
		})
	}
	return out
}
