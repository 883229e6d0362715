// Copyright 2026 Masa Sakano
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL. Rules are labeled blocks, so in
// this format every rule carries a name.
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Rules []struct {
			Name     string   `hcl:"name,label"`
			Pattern  string   `hcl:"pattern"`
			Literal  bool     `hcl:"literal,optional"`
			Template string   `hcl:"template,optional"`
			All      bool     `hcl:"all,optional"`
			Max      int64    `hcl:"max,optional"`
			Files    []string `hcl:"files,optional"`
		} `hcl:"rule,block"`
		Backup *struct {
			Path      string `hcl:"path,optional"`
			Suffix    string `hcl:"suffix,optional"`
			Timestamp bool   `hcl:"timestamp,optional"`
			Disabled  bool   `hcl:"disabled,optional"`
		} `hcl:"backup,block"`
		Encoding *struct {
			Input    string `hcl:"input,optional"`
			Output   string `hcl:"output,optional"`
			Transfer string `hcl:"transfer,optional"`
		} `hcl:"encoding,block"`
		AllowClobber   bool `hcl:"allow_clobber,optional"`
		ForceTimestamp bool `hcl:"force_timestamp,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		AllowClobber:   hclCfg.AllowClobber,
		ForceTimestamp: hclCfg.ForceTimestamp,
	}
	for _, r := range hclCfg.Rules {
		cfg.Rules = append(cfg.Rules, Rule{
			Name:     r.Name,
			Pattern:  r.Pattern,
			Literal:  r.Literal,
			Template: r.Template,
			All:      r.All,
			Max:      r.Max,
			Files:    r.Files,
		})
	}
	if hclCfg.Backup != nil {
		cfg.Backup = &BackupArgs{
			Path:      hclCfg.Backup.Path,
			Suffix:    hclCfg.Backup.Suffix,
			Timestamp: hclCfg.Backup.Timestamp,
			Disabled:  hclCfg.Backup.Disabled,
		}
	}
	if hclCfg.Encoding != nil {
		cfg.Encoding = &EncodingArgs{
			Input:    hclCfg.Encoding.Input,
			Output:   hclCfg.Encoding.Output,
			Transfer: hclCfg.Encoding.Transfer,
		}
	}

	return cfg, nil
}
