package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-schemagen/pkg/schema"
	"github.com/goliatone/go-schemagen/pkg/yamlschema"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type initOptions struct {
	LibraryName string
	LibraryPath string
	ClassName   string
	Force       bool
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [schemaPath]",
		Short: "Scaffold a schema document",
		Long: `Init writes a starter schema (default ./schema.yaml) holding the library
metadata and one class. Missing values are prompted for when running in a
terminal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFrom(cmd.Context()).Schema
			if len(args) > 0 {
				path = args[0]
			}
			if !opts.Force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("cli: %s already exists (use --force to overwrite)", path)
				}
			}
			if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
				if err := promptInit(&opts); err != nil {
					return err
				}
			}
			opts.applyDefaults(path)
			if err := opts.validate(); err != nil {
				return err
			}

			data, err := yamlschema.New().Encode(scaffold(opts))
			if err != nil {
				return err
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("cli: %w", err)
				}
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("cli: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.LibraryName, "library-name", "", "library name")
	cmd.Flags().StringVar(&opts.LibraryPath, "library-path", "", "library import path")
	cmd.Flags().StringVar(&opts.ClassName, "class", "", "name of the first class")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing file")
	return cmd
}

func promptInit(opts *initOptions) error {
	var questions []*survey.Question
	if opts.LibraryName == "" {
		questions = append(questions, &survey.Question{
			Name:     "LibraryName",
			Prompt:   &survey.Input{Message: "Library name:"},
			Validate: survey.ComposeValidators(survey.Required, identifierValidator),
		})
	}
	if opts.LibraryPath == "" {
		questions = append(questions, &survey.Question{
			Name:     "LibraryPath",
			Prompt:   &survey.Input{Message: "Library import path:", Help: "The Go import path of the generated package."},
			Validate: survey.Required,
		})
	}
	if opts.ClassName == "" {
		questions = append(questions, &survey.Question{
			Name:     "ClassName",
			Prompt:   &survey.Input{Message: "First class name:", Default: "MyClass"},
			Validate: survey.ComposeValidators(survey.Required, identifierValidator),
		})
	}
	if len(questions) == 0 {
		return nil
	}
	return survey.Ask(questions, opts)
}

func identifierValidator(ans any) error {
	s, _ := ans.(string)
	if !identifierPattern.MatchString(s) {
		return fmt.Errorf("%q is not an identifier", s)
	}
	return nil
}

func (o *initOptions) applyDefaults(path string) {
	if o.LibraryName == "" {
		o.LibraryName = "myLib"
		if dir := filepath.Base(filepath.Dir(path)); identifierPattern.MatchString(dir) {
			o.LibraryName = dir
		}
	}
	if o.LibraryPath == "" {
		o.LibraryPath = "example.com/" + o.LibraryName
	}
	if o.ClassName == "" {
		o.ClassName = "MyClass"
	}
}

func (o *initOptions) validate() error {
	var errs []error
	if !identifierPattern.MatchString(o.LibraryName) {
		errs = append(errs, fmt.Errorf("cli: library name %q is not an identifier", o.LibraryName))
	}
	if !identifierPattern.MatchString(o.ClassName) {
		errs = append(errs, fmt.Errorf("cli: class name %q is not an identifier", o.ClassName))
	}
	return errors.Join(errs...)
}

// scaffold builds the starter layer.
func scaffold(o initOptions) *schema.Layer {
	layer := schema.NewLayer("schema.yaml")
	layer.Documentation = fmt.Sprintf("Schema of the %s library.", o.LibraryName)

	global := &schema.ClassSpec{
		Name:      schema.GlobalClassName,
		Specifier: schema.SpecifierOver,
		CustomData: map[string]any{
			"libraryName": o.LibraryName,
			"libraryPath": o.LibraryPath,
		},
	}
	layer.Classes.Set(global.Name, global)

	cls := &schema.ClassSpec{Name: o.ClassName, Specifier: schema.SpecifierClass, TypeName: o.ClassName}
	cls.SetDocumentation(fmt.Sprintf("Describe %s here.", o.ClassName))
	label := &schema.PropertySpec{Name: "label", Kind: schema.KindAttribute, TypeName: "string", Variability: schema.Varying}
	label.SetDocumentation("A human readable label.")
	cls.Properties.Set(label.Name, label)
	layer.Classes.Set(cls.Name, cls)
	return layer
}
