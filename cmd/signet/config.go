package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AnatoleLucet/signet"
	"github.com/AnatoleLucet/signet/model"
)

// RunFile describes one entity and the times to evaluate it at.
//
//	name: arm
//	model: store:pd
//	inputs:
//	  - name: sin_kp
//	    value: [2]
//	  - name: sin_position
//	    value: [0]
//	    step: [0.25]
//	outputs: [sout_torque]
//	warmup: true
//	from: 0
//	to: 10
type RunFile struct {
	Name    string        `yaml:"name"`
	Model   string        `yaml:"model"`
	Inputs  []InputConfig `yaml:"inputs"`
	Outputs []string      `yaml:"outputs"`
	Warmup  bool          `yaml:"warmup"`
	From    int           `yaml:"from"`
	To      int           `yaml:"to"`
}

// InputConfig feeds an input with value + step*time.
type InputConfig struct {
	Name  string    `yaml:"name"`
	Value []float64 `yaml:"value"`
	Step  []float64 `yaml:"step"`
}

func LoadRunFile(path string) (RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunFile{}, Error.Wrap(err, SetExitCode(ExitUser))
	}

	return ParseRunFile(data)
}

func ParseRunFile(data []byte) (RunFile, error) {
	var rf RunFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rf); err != nil {
		return RunFile{}, Error.Wrap(fmt.Errorf("bad run file: %w", err), SetExitCode(ExitBadArgs))
	}

	if rf.Name == "" {
		rf.Name = "main"
	}
	if err := rf.validate(); err != nil {
		return RunFile{}, Error.Wrap(err, SetExitCode(ExitBadArgs))
	}

	return rf, nil
}

func (rf RunFile) validate() error {
	if rf.Model == "" {
		return fmt.Errorf("run file has no model")
	}
	if rf.To < rf.From {
		return fmt.Errorf("run file ends at %d before starting at %d", rf.To, rf.From)
	}
	for i, in := range rf.Inputs {
		if in.Name == "" {
			return fmt.Errorf("input %d has no name", i)
		}
		if len(in.Step) != 0 && len(in.Step) != len(in.Value) {
			return fmt.Errorf("input %s has %d steps for %d values", in.Name, len(in.Step), len(in.Value))
		}
	}
	return nil
}

// Source returns the input's value at a time.
func (in InputConfig) Source() signet.Source {
	if len(in.Step) == 0 {
		return signet.Constant(in.Value)
	}

	value, step := model.Vector(in.Value), model.Vector(in.Step)
	return func(time int) (model.Vector, error) {
		out := make(model.Vector, len(value))
		for i := range value {
			out[i] = value[i] + step[i]*float64(time)
		}
		return out, nil
	}
}
