package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func tabCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tab",
		Short: "成绩与排名",
	}

	session := &cobra.Command{
		Use:   "session <session-id>",
		Short: "场次成绩",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			res, err := a.svc.Tab.SessionResults(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), res.Standings)
		},
	}

	series := &cobra.Command{
		Use:   "series <series-id>",
		Short: "系列累计排名",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			res, err := a.svc.Tab.SeriesRankings(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), res)
		},
	}

	var out string
	export := &cobra.Command{
		Use:   "export <session-id>",
		Short: "导出场次成绩表 (.xlsx)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			buf, filename, err := a.svc.Export.ExportSessionResults(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = filename
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入 %s\n", out)
			return nil
		},
	}
	export.Flags().StringVarP(&out, "output", "o", "", "输出文件路径，默认使用生成的文件名")

	complete := &cobra.Command{
		Use:   "complete <session-id>",
		Short: "全部房间有结果后标记场次结束",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			return a.svc.Tab.CompleteSession(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(session, series, export, complete)
	return cmd
}

func ratingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "成员评分",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "recompute <series-id>",
		Short: "按已发布场次重算评分",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			res, err := a.svc.Rating.Recompute(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), res.Changes)
		},
	})
	return cmd
}
