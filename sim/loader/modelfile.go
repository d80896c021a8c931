// Package loader parses model files (JSON/YAML) and point files (the
// whitespace-separated input point file format) into the types sim/model
// and sim/state need, and resolves command-line/model-file parameter
// precedence.
package loader

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/spatial"
)

// ProcessSpec names a concrete process and its constructor parameters, as
// they appear in a model file's "processes" array.
type ProcessSpec struct {
	Type     string  `json:"type" yaml:"type"`
	Entity   uint32  `json:"entity,omitempty" yaml:"entity,omitempty"`
	Source   uint32  `json:"source,omitempty" yaml:"source,omitempty"`
	Target   uint32  `json:"target,omitempty" yaml:"target,omitempty"`
	Parent   uint32  `json:"parent,omitempty" yaml:"parent,omitempty"`
	Child    uint32  `json:"child,omitempty" yaml:"child,omitempty"`
	Consumer uint32  `json:"consumer,omitempty" yaml:"consumer,omitempty"`
	Resource uint32  `json:"resource,omitempty" yaml:"resource,omitempty"`

	Facilitator uint32 `json:"facilitator,omitempty" yaml:"facilitator,omitempty"`

	Rate   float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Kernel *KernelSpec `json:"kernel,omitempty" yaml:"kernel,omitempty"`
}

// KernelSpec selects and parameterizes a dispersal kernel.
type KernelSpec struct {
	Type     string  `json:"type" yaml:"type"`
	Integral float64 `json:"integral" yaml:"integral"`
	Radius   float64 `json:"radius" yaml:"radius"`
	Sigma    float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`
}

// SimulatorSpec carries the "simulator" block's defaults, overridable by
// command-line flags (original main.cpp's get_parameter precedence).
type SimulatorSpec struct {
	Time   *float64 `json:"time,omitempty" yaml:"time,omitempty"`
	Domain *float64 `json:"domain,omitempty" yaml:"domain,omitempty"`
	Seed   *int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Dt     *float64 `json:"dt,omitempty" yaml:"dt,omitempty"`
}

// ModelSpec is the top-level model file shape, unmarshaled identically from
// JSON or YAML.
type ModelSpec struct {
	Simulator SimulatorSpec `json:"simulator" yaml:"simulator"`
	Processes []ProcessSpec `json:"processes" yaml:"processes"`
}

// ParseModelJSON unmarshals a JSON model file.
func ParseModelJSON(data []byte) (*ModelSpec, error) {
	var spec ModelSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("loader: invalid model JSON: %w", err)
	}
	return &spec, nil
}

// ParseModelYAML unmarshals a YAML model file (ambient convenience format
// alongside the required JSON one).
func ParseModelYAML(data []byte) (*ModelSpec, error) {
	var spec ModelSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("loader: invalid model YAML: %w", err)
	}
	return &spec, nil
}

func buildKernel(spec *KernelSpec) (process.Kernel, error) {
	if spec == nil {
		return nil, fmt.Errorf("loader: process requires a kernel but none was given")
	}
	switch spec.Type {
	case "tophat", "":
		return process.NewTophat(spec.Integral, spec.Radius), nil
	case "gaussian":
		return process.NewGaussian(spec.Integral, spec.Sigma, spec.Radius), nil
	default:
		return nil, fmt.Errorf("loader: unknown kernel type %q", spec.Type)
	}
}

// BuildProcess constructs the concrete process.Descriptor named by spec,
// resolving its kernel (if any) first. Entity ids are taken verbatim from
// the file; the caller (sim/model.Add) is responsible for wiring the
// resulting Descriptor to a concrete PointSource.
func BuildProcess(spec ProcessSpec) (process.Descriptor, error) {
	e := func(v uint32) spatial.EntityID { return spatial.EntityID(v) }
	switch spec.Type {
	case "Immigration":
		return process.NewImmigration(e(spec.Entity), spec.Rate), nil
	case "DensityIndependentDeath":
		return process.NewDensityIndependentDeath(e(spec.Entity), spec.Rate), nil
	case "ChangeInType":
		return process.NewChangeInType(e(spec.Source), e(spec.Target), spec.Rate), nil
	case "Jump":
		k, err := buildKernel(spec.Kernel)
		if err != nil {
			return nil, err
		}
		return process.NewJump(e(spec.Entity), k), nil
	case "Birth":
		k, err := buildKernel(spec.Kernel)
		if err != nil {
			return nil, err
		}
		return process.NewBirth(e(spec.Parent), e(spec.Child), k), nil
	case "Consume":
		k, err := buildKernel(spec.Kernel)
		if err != nil {
			return nil, err
		}
		return process.NewConsume(e(spec.Consumer), e(spec.Resource), k), nil
	case "ChangeInTypeByFacilitation":
		k, err := buildKernel(spec.Kernel)
		if err != nil {
			return nil, err
		}
		return process.NewChangeInTypeByFacilitation(e(spec.Source), e(spec.Facilitator), e(spec.Target), k), nil
	case "ChangeInTypeByConsumption":
		k, err := buildKernel(spec.Kernel)
		if err != nil {
			return nil, err
		}
		return process.NewChangeInTypeByConsumption(e(spec.Source), e(spec.Resource), e(spec.Target), k), nil
	case "BirthByConsumption":
		k, err := buildKernel(spec.Kernel)
		if err != nil {
			return nil, err
		}
		return process.NewBirthByConsumption(e(spec.Parent), e(spec.Resource), e(spec.Child), k), nil
	default:
		return nil, fmt.Errorf("loader: unknown process type %q", spec.Type)
	}
}

// BuildProcesses builds every process in spec.Processes, in file order,
// logging each one at debug level.
func BuildProcesses(spec *ModelSpec) ([]process.Descriptor, error) {
	out := make([]process.Descriptor, 0, len(spec.Processes))
	for i, ps := range spec.Processes {
		p, err := BuildProcess(ps)
		if err != nil {
			return nil, fmt.Errorf("loader: process #%d: %w", i, err)
		}
		logrus.Debugf("[loader] built process %s", p)
		out = append(out, p)
	}
	return out, nil
}

// ResolveParam implements the original's get_parameter precedence:
// command-line flags override model-file defaults; a conflict between the
// two is logged as a warning rather than silently resolved.
func ResolveParam[T comparable](name string, fileValue *T, flagValue T, flagSet bool) (T, error) {
	var zero T
	if flagSet && fileValue != nil && *fileValue != flagValue {
		logrus.Warnf("[loader] overriding model file value %q=%v with command-line value %v", name, *fileValue, flagValue)
	}
	if flagSet {
		return flagValue, nil
	}
	if fileValue != nil {
		return *fileValue, nil
	}
	return zero, fmt.Errorf("loader: no value for required parameter %q in model file or command line", name)
}
