package service

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
)

func TestExportSessionResults(t *testing.T) {
	env := newTestEnv(t)
	sessionID, released := env.releasedSession(t, 4)
	submitAll(t, env, released, 0, 1)

	buf, filename, err := env.svc.Export.ExportSessionResults(env.ctx, sessionID)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.HasSuffix(filename, "_results.xlsx") {
		t.Fatalf("文件名不符: %s", filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}
	defer f.Close()

	header, _ := f.GetCellValue("队伍排名", "A1")
	if header != "名次" {
		t.Fatalf("表头不符: %q", header)
	}
	teams, _ := f.GetRows("队伍排名")
	if len(teams) != 5 {
		t.Fatalf("期望 4 支队伍 + 表头, got %d 行", len(teams))
	}
	speakers, _ := f.GetRows("辩手排名")
	if len(speakers) != 9 {
		t.Fatalf("期望 8 名辩手 + 表头, got %d 行", len(speakers))
	}
	if idx, _ := f.GetSheetIndex("待定房间"); idx != -1 {
		t.Fatal("全部有结果时不应有待定 Sheet")
	}
}

func TestExportSessionResults_NotReleased(t *testing.T) {
	env := newTestEnv(t)
	sessionID := env.standardSession(t, 4)
	if _, _, err := env.svc.Export.ExportSessionResults(env.ctx, sessionID); !errors.Is(err, ErrDrawNotReleased) {
		t.Fatalf("期望 ErrDrawNotReleased, got %v", err)
	}
}

func TestMemberCalendar(t *testing.T) {
	env := newTestEnv(t)
	_, released := env.releasedSession(t, 4)
	env.standardSession(t, 11) // 未发布场次不进入日历

	judge := chairOf(released.Rooms[0])
	body, filename, err := env.svc.Export.MemberCalendar(env.ctx, env.seriesID, judge)
	if err != nil {
		t.Fatalf("导出日历失败: %v", err)
	}
	if !strings.HasSuffix(filename, ".ics") {
		t.Fatalf("文件名不符: %s", filename)
	}

	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("解析日历失败: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("期望 1 个事件, got %d", len(events))
	}
	summary := events[0].GetProperty(ics.ComponentPropertySummary)
	if summary == nil || !strings.Contains(summary.Value, "主裁") || !strings.Contains(summary.Value, "第 1 房") {
		t.Fatalf("事件标题不符: %+v", summary)
	}

	if _, _, err := env.svc.Export.MemberCalendar(env.ctx, "other-series", judge); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("期望 ErrMemberNotFound, got %v", err)
	}
}
