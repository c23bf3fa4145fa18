package topologyfile

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/linesim/internal/model"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot is the top-level shape of an HCL topology:
//
//	entry = "input"
//
//	generation {
//	  min = "500ms"
//	  max = "2s"
//	}
//
//	buffer "input" {
//	  name = "Input"
//	  x    = 50
//	  y    = 200
//	}
//
//	station "a" {
//	  name        = "Machine A"
//	  min_service = "800ms"
//	  max_service = 2000 # bare numbers are milliseconds
//	  input       = "input"
//	  output      = "stage2a"
//	}
type fileRoot struct {
	Entry      string           `hcl:"entry,optional"`
	Generation *generationBlock `hcl:"generation,block"`
	Buffers    []*bufferBlock   `hcl:"buffer,block"`
	Stations   []*stationBlock  `hcl:"station,block"`
}

type generationBlock struct {
	Min hcl.Expression `hcl:"min"`
	Max hcl.Expression `hcl:"max"`
}

type bufferBlock struct {
	ID       string  `hcl:"id,label"`
	Name     string  `hcl:"name,optional"`
	X        float64 `hcl:"x,optional"`
	Y        float64 `hcl:"y,optional"`
	Capacity int     `hcl:"capacity,optional"`
}

type stationBlock struct {
	ID         string         `hcl:"id,label"`
	Name       string         `hcl:"name,optional"`
	X          float64        `hcl:"x,optional"`
	Y          float64        `hcl:"y,optional"`
	MinService hcl.Expression `hcl:"min_service"`
	MaxService hcl.Expression `hcl:"max_service"`
	Input      string         `hcl:"input,optional"`
	Output     string         `hcl:"output,optional"`
}

func decodeHCL(src []byte, filename string) (*model.Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL topology %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL topology %s: %w", filename, diags)
	}

	cfg := &model.Config{EntryBufferID: root.Entry}
	for _, b := range root.Buffers {
		cfg.Buffers = append(cfg.Buffers, model.BufferConfig{
			ID:       b.ID,
			Name:     b.Name,
			Position: model.Position{X: b.X, Y: b.Y},
			Capacity: b.Capacity,
		})
	}
	for _, s := range root.Stations {
		lo, d1 := durationAttr(s.MinService)
		hi, d2 := durationAttr(s.MaxService)
		diags = append(diags, d1...)
		diags = append(diags, d2...)
		cfg.Stations = append(cfg.Stations, model.StationConfig{
			ID:       s.ID,
			Name:     s.Name,
			Position: model.Position{X: s.X, Y: s.Y},
			Service:  model.ServiceRange{Min: lo, Max: hi},
		})
		if s.Input != "" {
			cfg.Edges = append(cfg.Edges, model.Edge{From: s.Input, To: s.ID, Type: model.BufferToStation})
		}
		if s.Output != "" {
			cfg.Edges = append(cfg.Edges, model.Edge{From: s.ID, To: s.Output, Type: model.StationToBuffer})
		}
	}
	if g := root.Generation; g != nil {
		lo, d1 := durationAttr(g.Min)
		hi, d2 := durationAttr(g.Max)
		diags = append(diags, d1...)
		diags = append(diags, d2...)
		cfg.Generation = &model.RateWindow{Min: lo, Max: hi}
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid HCL topology %s: %w", filename, diags)
	}
	return cfg, nil
}

// durationAttr evaluates a literal duration. Strings use time.ParseDuration
// syntax; numbers are milliseconds.
func durationAttr(expr hcl.Expression) (time.Duration, hcl.Diagnostics) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return 0, diags
	}
	bad := func(detail string) hcl.Diagnostics {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid duration",
			Detail:   detail,
			Subject:  expr.Range().Ptr(),
		}}
	}

	switch {
	case val.IsNull() || !val.IsKnown():
		return 0, bad("A duration value is required.")
	case val.Type() == cty.Number:
		ms, _ := val.AsBigFloat().Float64()
		return time.Duration(ms * float64(time.Millisecond)), nil
	case val.Type() == cty.String:
		s := val.AsString()
		if ms, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(ms * float64(time.Millisecond)), nil
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, bad(err.Error())
		}
		return d, nil
	default:
		return 0, bad(fmt.Sprintf("Expected a string or number, got %s.", val.Type().FriendlyName()))
	}
}

func encodeHCL(cfg *model.Config) ([]byte, error) {
	inputs := make(map[string]string)
	outputs := make(map[string]string)
	for _, e := range cfg.Edges {
		bound := inputs
		if e.Type == model.StationToBuffer {
			bound = outputs
		}
		if prev, ok := bound[e.StationID()]; ok && prev != e.BufferID() {
			return nil, fmt.Errorf("station %q has more than one %s edge and cannot be written as HCL", e.StationID(), e.Type)
		}
		bound[e.StationID()] = e.BufferID()
	}

	f := hclwrite.NewEmptyFile()
	body := f.Body()
	if cfg.EntryBufferID != "" {
		body.SetAttributeValue("entry", cty.StringVal(cfg.EntryBufferID))
	}
	if g := cfg.Generation; g != nil {
		body.AppendNewline()
		gb := body.AppendNewBlock("generation", nil).Body()
		gb.SetAttributeValue("min", cty.StringVal(g.Min.String()))
		gb.SetAttributeValue("max", cty.StringVal(g.Max.String()))
	}

	for _, b := range cfg.Buffers {
		body.AppendNewline()
		bb := body.AppendNewBlock("buffer", []string{b.ID}).Body()
		bb.SetAttributeValue("name", cty.StringVal(b.Name))
		bb.SetAttributeValue("x", cty.NumberFloatVal(b.Position.X))
		bb.SetAttributeValue("y", cty.NumberFloatVal(b.Position.Y))
		if b.Capacity > 0 {
			bb.SetAttributeValue("capacity", cty.NumberIntVal(int64(b.Capacity)))
		}
	}

	for _, s := range cfg.Stations {
		body.AppendNewline()
		sb := body.AppendNewBlock("station", []string{s.ID}).Body()
		sb.SetAttributeValue("name", cty.StringVal(s.Name))
		sb.SetAttributeValue("x", cty.NumberFloatVal(s.Position.X))
		sb.SetAttributeValue("y", cty.NumberFloatVal(s.Position.Y))
		sb.SetAttributeValue("min_service", cty.StringVal(s.Service.Min.String()))
		sb.SetAttributeValue("max_service", cty.StringVal(s.Service.Max.String()))
		if in := inputs[s.ID]; in != "" {
			sb.SetAttributeValue("input", cty.StringVal(in))
		}
		if out := outputs[s.ID]; out != "" {
			sb.SetAttributeValue("output", cty.StringVal(out))
		}
	}
	return f.Bytes(), nil
}
