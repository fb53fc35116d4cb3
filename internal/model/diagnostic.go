package model

import "fmt"

// DiagnosticKind classifies a non-fatal problem found while computing a
// calendar.
type DiagnosticKind string

const (
	DiagStructural     DiagnosticKind = "structural"
	DiagReference      DiagnosticKind = "reference"
	DiagDemotion       DiagnosticKind = "demotion"
	DiagTie            DiagnosticKind = "tie"
	DiagTransferFailed DiagnosticKind = "transfer_failed"
)

// Layer names the jurisdiction a patch or diagnostic comes from.
type Layer string

const (
	LayerGeneral     Layer = "general"
	LayerWiderRegion Layer = "wider_region"
	LayerNational    Layer = "national"
	LayerDiocesan    Layer = "diocesan"
	LayerPrecedence  Layer = "precedence"
)

// Diagnostic is a problem attached to a computed calendar.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind" yaml:"kind"`
	Layer    Layer          `json:"layer" yaml:"layer"`
	Source   string         `json:"source,omitempty" yaml:"source,omitempty"`
	EventKey string         `json:"event_key,omitempty" yaml:"event_key,omitempty"`
	Message  string         `json:"message" yaml:"message"`
}

func (d Diagnostic) String() string {
	src := string(d.Layer)
	if d.Source != "" {
		src += "/" + d.Source
	}
	if d.EventKey == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Kind, src, d.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", d.Kind, src, d.EventKey, d.Message)
}
