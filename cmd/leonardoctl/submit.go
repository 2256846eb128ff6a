package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"studio/internal/domain"
	"studio/internal/generation"
)

func SubmitCmd(e *env) *cobra.Command {
	var (
		kind   string
		file   string
		noWait bool
		req    generation.SubmitRequest
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a generation and poll it to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, ok := domain.ParseKind(kind)
			if !ok {
				return fmt.Errorf("unknown kind %q (want one of %s)", kind, kindList())
			}
			req.Kind = k
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read %s: %w", file, err)
				}
				req.Asset = data
				req.AssetExtension = filepath.Ext(file)
			}

			client, err := e.client(ctx)
			if err != nil {
				return err
			}
			motion, err := e.motionControls()
			if err != nil {
				return err
			}
			store := generation.NewStore(generation.StoreOptions{MaxAttempts: e.cfg.PollMaxAttempts})
			store.AddHook(func(job domain.GenerationJob) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s  %-10s attempts=%d\n", job.ID, job.Status, job.Attempts)
			})
			var sched *generation.Scheduler
			if !noWait {
				sched, err = generation.NewScheduler(generation.SchedulerOptions{
					Fetcher:        client,
					Store:          store,
					InitialDelay:   e.cfg.PollInitialDelay,
					Interval:       e.cfg.PollInterval,
					MaxAttempts:    e.cfg.PollMaxAttempts,
					RequestTimeout: e.cfg.PollRequestTimeout,
					Logger:         e.logger,
				})
				if err != nil {
					return err
				}
			}
			orch, err := generation.NewOrchestrator(generation.OrchestratorOptions{
				Upstream:       client,
				Store:          store,
				Scheduler:      sched,
				MotionControls: motion,
				SettleDelay:    e.cfg.UploadSettleDelay,
				Logger:         e.logger,
			})
			if err != nil {
				return err
			}

			sub, err := orch.Submit(ctx, req)
			if err != nil {
				return err
			}
			if len(sub.Retries) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "retried with defaults for: %s\n", strings.Join(sub.Retries, ", "))
			}
			job := sub.Job
			if sub.Poll != nil {
				out, err := sub.Poll.Wait(ctx)
				if err != nil {
					sched.Stop()
					return err
				}
				if job, err = store.Get(out.JobID); err != nil {
					return err
				}
			}
			return printJSON(cmd, job)
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", "", "generation kind ("+kindList()+")")
	f.StringVar(&req.Prompt, "prompt", "", "prompt text")
	f.StringVar(&file, "file", "", "local image to upload as the source")
	f.StringVar(&req.ImageID, "image-id", "", "existing upstream image id")
	f.BoolVar(&req.ImageIsGenerated, "image-generated", false, "image-id refers to a generated image")
	f.StringVar(&req.EndFrameImageID, "end-frame-id", "", "end frame image id (image-to-video)")
	f.IntVar(&req.Duration, "duration", 0, "video duration in seconds")
	f.StringVar(&req.Resolution, "resolution", "", "video resolution, e.g. RESOLUTION_720")
	f.IntVar(&req.MotionStrength, "motion-strength", 0, "motion strength (video-motion)")
	f.StringVar(&req.MotionControl, "motion-control", "", "named motion control")
	f.StringVar(&req.SourceGenerationID, "source-id", "", "source generation id (video-upscale)")
	f.StringVar(&req.ModelAssetID, "model-asset-id", "", "3D model asset id (texture)")
	f.StringVar(&req.ModelID, "model-id", "", "image model id")
	f.BoolVar(&noWait, "no-wait", false, "return after submission without polling")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func kindList() string {
	names := make([]string, len(domain.Kinds))
	for i, k := range domain.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
