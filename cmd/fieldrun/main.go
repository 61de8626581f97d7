package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"
	"go.uber.org/zap"
	"golang.org/x/term"

	fieldruntime "github.com/voxelforge/field-runtime"
	"github.com/voxelforge/field-runtime/graph"
	_ "github.com/voxelforge/field-runtime/ops"
	"github.com/voxelforge/field-runtime/runtime"
)

var debugFlag bool

func main() {
	root := &cobra.Command{
		Use:   "fieldrun",
		Short: "Compile and evaluate procedural field graphs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debugFlag || env.Bool("FIELDRUN_DEBUG") {
				logger, err := zap.NewDevelopment()
				if err == nil {
					runtime.SetLogger(logger)
				}
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")

	root.AddCommand(inspectCmd(), evalCmd(), sliceCmd(), analyzeCmd(), tuiCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadAndCompile(path string, debug bool) (*runtime.Runtime, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	g, err := graph.LoadYAML(data)
	if err != nil {
		return nil, fmt.Errorf("parse graph: %w", err)
	}
	r := runtime.New()
	if res := r.Compile(g, debug); !res.Success {
		return nil, fmt.Errorf("compile graph: %w", res.Err)
	}
	return r, nil
}

func parseVec3(s string) (fieldruntime.Vector3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fieldruntime.Vector3{}, fmt.Errorf("%q is not of the form x,y,z", s)
	}
	var out [3]float32
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fieldruntime.Vector3{}, fmt.Errorf("bad coordinate %q: %w", p, err)
		}
		out[i] = float32(v)
	}
	return fieldruntime.Vector3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <graph.yaml>",
		Short: "Compile a graph and print its program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadAndCompile(args[0], true)
			if err != nil {
				return err
			}
			fmt.Print(r.Disassemble())
			return nil
		},
	}
}

func evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <graph.yaml> <x,y,z>",
		Short: "Evaluate the field at one position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadAndCompile(args[0], false)
			if err != nil {
				return err
			}
			pos, err := parseVec3(args[1])
			if err != nil {
				return err
			}
			s := &runtime.State{}
			r.PrepareState(s, 1)
			fmt.Printf("%g\n", r.GenerateSingle(s, pos, false))
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	var minStr, maxStr string
	cmd := &cobra.Command{
		Use:   "analyze <graph.yaml>",
		Short: "Bound the field over a box and report prunable work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadAndCompile(args[0], false)
			if err != nil {
				return err
			}
			lo, err := parseVec3(minStr)
			if err != nil {
				return err
			}
			hi, err := parseVec3(maxStr)
			if err != nil {
				return err
			}
			if lo.X > hi.X || lo.Y > hi.Y || lo.Z > hi.Z {
				return fmt.Errorf("box min %s exceeds max %s", minStr, maxStr)
			}

			s := &runtime.State{}
			r.PrepareState(s, 1)
			bound := r.AnalyzeRange(s, lo, hi)
			r.GenerateOptimizedExecutionMap(s, false)

			fmt.Printf("range: [%g, %g]\n", bound.Min, bound.Max)
			fmt.Printf("instructions: %d of %d needed inside the box\n",
				len(s.ExecutionMap()), r.InstructionCount())
			return nil
		},
	}
	cmd.Flags().StringVar(&minStr, "min", "0,0,0", "box minimum corner x,y,z")
	cmd.Flags().StringVar(&maxStr, "max", "16,16,16", "box maximum corner x,y,z")
	return cmd
}

// sliceCmd renders one XZ plane of the field as ASCII, darker glyphs for
// deeper (more negative) values.
func sliceCmd() *cobra.Command {
	var y float64
	var size int
	var step float64
	cmd := &cobra.Command{
		Use:   "slice <graph.yaml>",
		Short: "Render an XZ slice of the field as ASCII",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadAndCompile(args[0], false)
			if err != nil {
				return err
			}
			if size < 1 {
				return fmt.Errorf("size must be positive")
			}
			if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && size > w && w > 0 {
				size = w
			}

			s := &runtime.State{}
			r.PrepareState(s, size)

			xs := make([]float32, size)
			ys := make([]float32, size)
			zs := make([]float32, size)
			out := make([]float32, size)
			half := float32(size) * float32(step) / 2

			const shades = " .:-=+*#%@"
			var b strings.Builder
			for row := 0; row < size; row++ {
				z := float32(row)*float32(step) - half
				for col := 0; col < size; col++ {
					xs[col] = float32(col)*float32(step) - half
					ys[col] = float32(y)
					zs[col] = z
				}
				r.GenerateSet(s, xs, ys, zs, out, false, false)
				for _, v := range out {
					// Inside (negative) is solid, outside fades out.
					idx := int((1 - v/8) * float32(len(shades)-1))
					if idx < 0 {
						idx = 0
					}
					if idx >= len(shades) {
						idx = len(shades) - 1
					}
					b.WriteByte(shades[idx])
				}
				b.WriteByte('\n')
			}
			fmt.Print(b.String())
			return nil
		},
	}
	cmd.Flags().Float64Var(&y, "y", 0, "Y level of the slice")
	cmd.Flags().IntVar(&size, "size", 48, "slice width and height in cells")
	cmd.Flags().Float64Var(&step, "step", 1, "world units per cell")
	return cmd
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui <graph.yaml>",
		Short: "Explore a field interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(args[0])
		},
	}
}
