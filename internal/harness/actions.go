package harness

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/drillstore/internal/drill"
	"github.com/roach88/drillstore/internal/engine"
	"github.com/roach88/drillstore/internal/ir"
)

// actionFunc runs one step and returns its outcome. The error is reserved
// for malformed arguments.
type actionFunc func(ctx context.Context, s *drill.Service, args map[string]any) (string, error)

var actions = map[string]actionFunc{
	"create_pages": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			Pages []drill.NewPageArgs `yaml:"pages"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		return outcome(s.CreatePages(ctx, a.Pages)), nil
	},
	"update_pages": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			Pages []struct {
				ID       int64   `yaml:"id"`
				Counts   *int64  `yaml:"counts"`
				IsSubset *bool   `yaml:"is_subset"`
				Notes    *string `yaml:"notes"`
			} `yaml:"pages"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		mods := make([]drill.ModifiedPage, len(a.Pages))
		for i, p := range a.Pages {
			mods[i] = drill.ModifiedPage{ID: p.ID, Counts: opt(p.Counts), IsSubset: opt(p.IsSubset), Notes: optPtr(p.Notes)}
		}
		return outcome(s.UpdatePages(ctx, mods)), nil
	},
	"delete_pages": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		ids, err := decodeIDs(args)
		if err != nil {
			return "", err
		}
		return outcome(s.DeletePages(ctx, ids)), nil
	},
	"create_marchers": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			Marchers []drill.NewMarcherArgs `yaml:"marchers"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		return outcome(s.CreateMarchers(ctx, a.Marchers)), nil
	},
	"update_marchers": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			Marchers []struct {
				ID          int64   `yaml:"id"`
				Name        *string `yaml:"name"`
				Section     *string `yaml:"section"`
				DrillPrefix *string `yaml:"drill_prefix"`
				DrillOrder  *int64  `yaml:"drill_order"`
				Notes       *string `yaml:"notes"`
			} `yaml:"marchers"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		mods := make([]drill.ModifiedMarcher, len(a.Marchers))
		for i, m := range a.Marchers {
			mods[i] = drill.ModifiedMarcher{
				ID:          m.ID,
				Name:        optPtr(m.Name),
				Section:     opt(m.Section),
				DrillPrefix: opt(m.DrillPrefix),
				DrillOrder:  opt(m.DrillOrder),
				Notes:       optPtr(m.Notes),
			}
		}
		return outcome(s.UpdateMarchers(ctx, mods)), nil
	},
	"delete_marchers": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		ids, err := decodeIDs(args)
		if err != nil {
			return "", err
		}
		return outcome(s.DeleteMarchers(ctx, ids)), nil
	},
	"update_marcher_pages": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			MarcherPages []struct {
				MarcherID int64    `yaml:"marcher_id"`
				PageID    int64    `yaml:"page_id"`
				X         *float64 `yaml:"x"`
				Y         *float64 `yaml:"y"`
				Notes     *string  `yaml:"notes"`
			} `yaml:"marcher_pages"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		mods := make([]drill.ModifiedMarcherPage, len(a.MarcherPages))
		for i, m := range a.MarcherPages {
			mods[i] = drill.ModifiedMarcherPage{MarcherID: m.MarcherID, PageID: m.PageID, X: opt(m.X), Y: opt(m.Y), Notes: optPtr(m.Notes)}
		}
		return outcome(s.UpdateMarcherPages(ctx, mods)), nil
	},
	"create_shape_pages": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			ShapePages []drill.NewShapePageArgs `yaml:"shape_pages"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		return outcome(s.CreateShapePages(ctx, a.ShapePages)), nil
	},
	"update_shape_pages": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			ShapePages []struct {
				ID      int64   `yaml:"id"`
				SvgPath *string `yaml:"svg_path"`
				Notes   *string `yaml:"notes"`
			} `yaml:"shape_pages"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		mods := make([]drill.ModifiedShapePage, len(a.ShapePages))
		for i, sp := range a.ShapePages {
			mods[i] = drill.ModifiedShapePage{ID: sp.ID, SvgPath: opt(sp.SvgPath), Notes: optPtr(sp.Notes)}
		}
		return outcome(s.UpdateShapePages(ctx, mods)), nil
	},
	"delete_shape_pages": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		ids, err := decodeIDs(args)
		if err != nil {
			return "", err
		}
		return outcome(s.DeleteShapePages(ctx, ids)), nil
	},
	"create_shape_page_marchers": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			Members []drill.NewShapePageMarcherArgs `yaml:"members"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		return outcome(s.CreateShapePageMarchers(ctx, a.Members)), nil
	},
	"update_shape_page_marchers": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			Members []struct {
				ID            int64   `yaml:"id"`
				PositionOrder *int64  `yaml:"position_order"`
				Notes         *string `yaml:"notes"`
			} `yaml:"members"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		mods := make([]drill.ModifiedShapePageMarcher, len(a.Members))
		for i, m := range a.Members {
			mods[i] = drill.ModifiedShapePageMarcher{ID: m.ID, PositionOrder: opt(m.PositionOrder), Notes: optPtr(m.Notes)}
		}
		return outcome(s.UpdateShapePageMarchers(ctx, mods)), nil
	},
	"delete_shape_page_marchers": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		ids, err := decodeIDs(args)
		if err != nil {
			return "", err
		}
		return outcome(s.DeleteShapePageMarchers(ctx, ids)), nil
	},
	"swap_position_order": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			A               int64 `yaml:"a"`
			B               int64 `yaml:"b"`
			UseCurrentGroup bool  `yaml:"use_current_group"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		return outcome(s.SwapPositionOrder(ctx, a.A, a.B, a.UseCurrentGroup)), nil
	},
	"undo": func(ctx context.Context, s *drill.Service, _ map[string]any) (string, error) {
		return outcome(s.Engine().Undo(ctx)), nil
	},
	"redo": func(ctx context.Context, s *drill.Service, _ map[string]any) (string, error) {
		return outcome(s.Engine().Redo(ctx)), nil
	},
	"set_group_limit": func(ctx context.Context, s *drill.Service, args map[string]any) (string, error) {
		var a struct {
			Limit int64 `yaml:"limit"`
		}
		if err := decodeArgs(args, &a); err != nil {
			return "", err
		}
		if err := s.Engine().SetGroupLimit(ctx, a.Limit); err != nil {
			return outcome(engine.Fail[struct{}](err)), nil
		}
		return OutcomeSuccess, nil
	},
}

// decodeArgs re-reads YAML-decoded arguments into a typed struct,
// rejecting unknown fields.
func decodeArgs(args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	data, err := yaml.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}

func decodeIDs(args map[string]any) ([]int64, error) {
	var a struct {
		IDs []int64 `yaml:"ids"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return a.IDs, nil
}

func outcome[T any](r engine.Result[T]) string {
	if r.Success {
		return OutcomeSuccess
	}
	return string(r.Error.Code)
}

func opt[T any](p *T) ir.Opt[T] {
	if p == nil {
		return ir.Opt[T]{}
	}
	return ir.Some(*p)
}

// optPtr sets a nullable column when the scenario names a value. YAML
// cannot tell an absent key from null, so clearing is not expressible.
func optPtr(p *string) ir.Opt[*string] {
	if p == nil {
		return ir.Opt[*string]{}
	}
	return ir.Some(p)
}
