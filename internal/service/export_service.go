package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"spartab/internal/model"
	"spartab/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// sessionDuration 日历事件默认时长
const sessionDuration = 2 * time.Hour

// ExportService 导出业务接口
//
//   - 场次成绩导出为 Excel (.xlsx)，队伍、辩手、裁判各一个 Sheet
//   - 成员日历导出为 iCalendar，每个已发布场次中的席位一个事件
type ExportService interface {
	ExportSessionResults(ctx context.Context, sessionID string) (*bytes.Buffer, string, error)
	MemberCalendar(ctx context.Context, seriesID, memberID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	tab    TabService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, tabSvc TabService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, tab: tabSvc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSessionResults — 场次成绩表
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSessionResults(ctx context.Context, sessionID string) (*bytes.Buffer, string, error) {
	res, err := s.tab.SessionResults(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	name := func(id string) string {
		if n, ok := res.Members[id]; ok && n != "" {
			return n
		}
		return id
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// Sheet1 队伍排名
	teams := "队伍排名"
	f.SetSheetName("Sheet1", teams)
	writeRow(f, teams, 1, headerStyle, "名次", "房间", "位置", "辩手", "积分", "总分", "净胜分", "晋级")
	for i, t := range res.Standings.Teams {
		speakers := make([]string, 0, len(t.Speakers))
		for _, m := range t.Speakers {
			speakers = append(speakers, name(m))
		}
		brk := ""
		if t.Break {
			brk = "是"
		}
		writeRow(f, teams, i+2, 0, t.Rank, t.RoomIndex+1, t.Position+1, strings.Join(speakers, " / "), t.Points, t.Score, t.Margin, brk)
	}
	f.SetColWidth(teams, "D", "D", 30)

	// Sheet2 辩手排名
	speakers := "辩手排名"
	if _, err := f.NewSheet(speakers); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}
	writeRow(f, speakers, 1, headerStyle, "名次", "姓名", "场数", "总分", "平均分", "积分")
	for i, sp := range res.Standings.Speakers {
		writeRow(f, speakers, i+2, 0, sp.Rank, name(sp.MemberID), sp.Rounds, sp.Total, sp.Average, sp.Points)
	}
	f.SetColWidth(speakers, "B", "B", 16)

	// Sheet3 裁判
	judges := "裁判"
	if _, err := f.NewSheet(judges); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
	}
	writeRow(f, judges, 1, headerStyle, "姓名", "选票数", "一致率")
	for i, j := range res.Standings.Judges {
		writeRow(f, judges, i+2, 0, name(j.MemberID), j.Ballots, j.Agreement)
	}
	f.SetColWidth(judges, "A", "A", 16)

	if len(res.Standings.Pending) > 0 {
		pending := "待定房间"
		if _, err := f.NewSheet(pending); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrExportGenerateFail, err)
		}
		writeRow(f, pending, 1, headerStyle, "房间 ID")
		for i, id := range res.Standings.Pending {
			writeRow(f, pending, i+2, 0, id)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("session_id", sessionID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("session_%s_results.xlsx", shortID(sessionID)), nil
}

func writeRow(f *excelize.File, sheet string, row, style int, values ...interface{}) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
		if style != 0 {
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ═══════════════════════════════════════════════════════════
// MemberCalendar — 成员在已发布场次中的席位
// ═══════════════════════════════════════════════════════════

func (s *exportService) MemberCalendar(ctx context.Context, seriesID, memberID string) ([]byte, string, error) {
	member, err := s.repo.Member.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrMemberNotFound
		}
		return nil, "", err
	}
	if member.SeriesID != seriesID {
		return nil, "", ErrMemberNotFound
	}

	speaking, judging, err := s.repo.Draw.ListAssignmentsByMember(ctx, memberID)
	if err != nil {
		s.logger.Error("查询成员席位失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, "", err
	}
	roles := make(map[string]string)
	for _, sa := range speaking {
		roles[sa.SessionID] = "辩手"
	}
	for _, ja := range judging {
		roles[ja.SessionID] = judgeRoleName(ja.Status)
	}
	ids := make([]string, 0, len(roles))
	for id := range roles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rooms, err := s.repo.Draw.ListBySessions(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	roomOf := make(map[string]int)
	for _, r := range rooms {
		if roomHasMember(r, memberID) {
			roomOf[r.SessionID] = r.RoomIndex
		}
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//spartab//spar draw//ZH")
	cal.SetName(member.Name + " 的练习赛")

	sessions, err := s.repo.Session.ListBySeries(ctx, seriesID)
	if err != nil {
		return nil, "", err
	}
	for _, session := range sessions {
		role, ok := roles[session.SessionID]
		if !ok || !session.Released {
			continue
		}
		title := session.Title
		if title == "" {
			title = "练习赛"
		}
		event := cal.AddEvent(session.SessionID + "-" + memberID + "@spartab")
		event.SetCreatedTime(session.CreatedAt)
		if session.ReleasedAt != nil {
			event.SetDtStampTime(*session.ReleasedAt)
		} else {
			event.SetDtStampTime(session.CreatedAt)
		}
		event.SetStartAt(session.StartTime)
		event.SetEndAt(session.StartTime.Add(sessionDuration))
		event.SetSummary(fmt.Sprintf("%s · %s · 第 %d 房", title, role, roomOf[session.SessionID]+1))
		if session.Location != "" {
			event.SetLocation(session.Location)
		}
	}

	return []byte(cal.Serialize()), fmt.Sprintf("member_%s.ics", shortID(memberID)), nil
}

func judgeRoleName(status string) string {
	switch status {
	case model.JudgeStatusChair:
		return "主裁"
	case model.JudgeStatusTrainee:
		return "见习裁判"
	default:
		return "边裁"
	}
}

func roomHasMember(r model.Room, memberID string) bool {
	for _, j := range r.Judges {
		if j.MemberID == memberID {
			return true
		}
	}
	for _, t := range r.Teams {
		for _, sp := range t.Speakers {
			if sp.MemberID == memberID {
				return true
			}
		}
	}
	return false
}
