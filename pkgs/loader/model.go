package loader

import (
	"github.com/aledsdavies/cligen/pkgs/convert"
	"github.com/aledsdavies/cligen/pkgs/descriptor"
)

// fileModel is the on-disk shape shared by every format. HCL spells each
// command as a labelled block; JSON and YAML use plain lists.
type fileModel struct {
	Commands []fileCommand `json:"commands" yaml:"commands" hcl:"command,block"`
}

type fileCommand struct {
	Name         string       `json:"name" yaml:"name" hcl:"name,label"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty" hcl:"description,optional"`
	Version      string       `json:"version,omitempty" yaml:"version,omitempty" hcl:"version,optional"`
	StandardHelp bool         `json:"standardHelp,omitzero" yaml:"standardHelp,omitempty" hcl:"standard_help,optional"`
	Options      []fileOption `json:"options,omitempty" yaml:"options,omitempty" hcl:"option,block"`
	Parameters   []fileParam  `json:"parameters,omitempty" yaml:"parameters,omitempty" hcl:"parameter,block"`
}

type fileOption struct {
	Field       string   `json:"field" yaml:"field" hcl:"field,label"`
	Names       []string `json:"names" yaml:"names" hcl:"names"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" hcl:"description,optional"`
	Required    bool     `json:"required,omitzero" yaml:"required,omitempty" hcl:"required,optional"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty" hcl:"default,optional"`
	Arity       string   `json:"arity,omitempty" yaml:"arity,omitempty" hcl:"arity,optional"`
	Type        string   `json:"type,omitempty" yaml:"type,omitempty" hcl:"type,optional"`
	Converter   string   `json:"converter,omitempty" yaml:"converter,omitempty" hcl:"converter,optional"`
}

type fileParam struct {
	Field       string `json:"field" yaml:"field" hcl:"field,label"`
	Index       int    `json:"index" yaml:"index" hcl:"index"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" hcl:"description,optional"`
	// Required defaults to true when absent.
	Required *bool  `json:"required,omitempty" yaml:"required,omitempty" hcl:"required,optional"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty" hcl:"type,optional"`
}

func (m *fileModel) descriptors() ([]*descriptor.Command, error) {
	cmds := make([]*descriptor.Command, 0, len(m.Commands))
	for _, fc := range m.Commands {
		cmd := &descriptor.Command{
			Name:         fc.Name,
			Description:  fc.Description,
			Version:      fc.Version,
			StandardHelp: fc.StandardHelp,
		}
		for _, fo := range fc.Options {
			typ, err := convert.ParseType(fo.Type)
			if err != nil {
				return nil, err
			}
			cmd.Options = append(cmd.Options, descriptor.Option{
				Field:         fo.Field,
				Aliases:       fo.Names,
				Description:   fo.Description,
				Required:      fo.Required,
				DefaultValue:  fo.Default,
				Arity:         fo.Arity,
				Type:          typ,
				ConverterName: fo.Converter,
			})
		}
		for _, fp := range fc.Parameters {
			typ, err := convert.ParseType(fp.Type)
			if err != nil {
				return nil, err
			}
			required := true
			if fp.Required != nil {
				required = *fp.Required
			}
			cmd.Parameters = append(cmd.Parameters, descriptor.Parameter{
				Field:       fp.Field,
				Index:       fp.Index,
				Description: fp.Description,
				Required:    required,
				Type:        typ,
			})
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func modelOf(cmds []*descriptor.Command) *fileModel {
	m := &fileModel{Commands: make([]fileCommand, 0, len(cmds))}
	for _, cmd := range cmds {
		fc := fileCommand{
			Name:         cmd.Name,
			Description:  cmd.Description,
			Version:      cmd.Version,
			StandardHelp: cmd.StandardHelp,
		}
		for _, o := range cmd.Options {
			fc.Options = append(fc.Options, fileOption{
				Field:       o.Field,
				Names:       o.Aliases,
				Description: o.Description,
				Required:    o.Required,
				Default:     o.DefaultValue,
				Arity:       o.Arity,
				Type:        o.Type.String(),
				Converter:   o.ConverterName,
			})
		}
		for _, p := range cmd.Parameters {
			required := p.Required
			fc.Parameters = append(fc.Parameters, fileParam{
				Field:       p.Field,
				Index:       p.Index,
				Description: p.Description,
				Required:    &required,
				Type:        p.Type.String(),
			})
		}
		m.Commands = append(m.Commands, fc)
	}
	return m
}
