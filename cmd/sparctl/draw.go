package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"spartab/internal/service"
)

const cliCaller = "sparctl"

func drawCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "排位草稿与发布",
	}

	generate := &cobra.Command{
		Use:   "generate <session-id>",
		Short: "求解排位并保存为新草稿",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			draft, err := a.svc.Draw.Generate(cmd.Context(), args[0], cliCaller)
			if err != nil {
				return explain(err)
			}
			a.logger.Info("草稿已生成", zap.String("session_id", args[0]), zap.Int("version", draft.Version))
			return printYAML(cmd.OutOrStdout(), draft)
		},
	}

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "查看当前草稿",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			draft, err := a.svc.Draw.CurrentDraft(cmd.Context(), args[0])
			if err != nil {
				return explain(err)
			}
			return printYAML(cmd.OutOrStdout(), draft)
		},
	}

	release := &cobra.Command{
		Use:   "release <session-id>",
		Short: "发布当前草稿",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := fromContext(cmd.Context())
			if err := a.open(); err != nil {
				return err
			}
			released, err := a.svc.Draw.Release(cmd.Context(), args[0], cliCaller)
			if err != nil {
				return explain(err)
			}
			return printYAML(cmd.OutOrStdout(), released)
		},
	}

	cmd.AddCommand(generate, show, release)
	return cmd
}

// explain 附上草稿违规明细
func explain(err error) error {
	violations := service.ViolationsOf(err)
	if len(violations) == 0 {
		return err
	}
	var details string
	for _, v := range violations {
		details += "\n  - " + v.String()
	}
	return fmt.Errorf("%w%s", err, details)
}
