package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"retarget/internal/pipeline"
	"retarget/internal/project"
	"retarget/internal/retargeting"
)

const noManifestMessage = "no retarget.toml found\nplease pass the assembly files and the consumer references, e.g.:\n  retarget walk --ref mscorlib@2.0.0.0 --ref App framework.yaml app.toml"

// inputs is what walk and lookup need: assembly files, the consumer's
// references and walk settings, from flags or the project manifest.
type inputs struct {
	files    []string
	consumer []pipeline.ConsumerRef
	walk     project.WalkConfig
	manifest *project.Manifest
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringArray("ref", nil, "consumer reference as Name or Name@Version (repeatable)")
	cmd.Flags().StringSlice("embed", nil, "consumer references whose interop types are embedded")
	cmd.Flags().String("local-types", "", "embedded interop type policy (default|explicit)")
}

func readInputs(cmd *cobra.Command, args []string) (*inputs, error) {
	in := &inputs{}
	if len(args) > 0 {
		in.files = args
	} else {
		m, ok, err := project.Discover(".")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(noManifestMessage)
		}
		if in.files, err = m.Files(); err != nil {
			return nil, err
		}
		in.manifest = m
		in.walk = m.Config.Walk
		if in.consumer, err = m.Consumer(); err != nil {
			return nil, err
		}
	}

	refFlags, err := cmd.Flags().GetStringArray("ref")
	if err != nil {
		return nil, err
	}
	if len(refFlags) > 0 {
		in.consumer = in.consumer[:0]
		for _, s := range refFlags {
			ref, err := project.ParseReference(s)
			if err != nil {
				return nil, err
			}
			in.consumer = append(in.consumer, ref)
		}
	}
	if len(in.consumer) == 0 {
		return nil, errors.New("no consumer references (use --ref or [consumer].references)")
	}
	embed, err := cmd.Flags().GetStringSlice("embed")
	if err != nil {
		return nil, err
	}
	if err := project.MarkEmbedded(in.consumer, embed); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("local-types") {
		if in.walk.LocalTypes, err = cmd.Flags().GetString("local-types"); err != nil {
			return nil, err
		}
	}
	if _, err := localTypePolicy(in.walk.LocalTypes); err != nil {
		return nil, err
	}
	return in, nil
}

func localTypePolicy(name string) (retargeting.LocalTypePolicy, error) {
	switch name {
	case "", "default":
		return retargeting.DefaultLocalTypePolicy, nil
	case "explicit":
		return retargeting.ExplicitOnlyLocalTypePolicy, nil
	default:
		return nil, fmt.Errorf("invalid local type policy %q (expected default|explicit)", name)
	}
}

// request builds the pipeline request shared by walk and lookup.
func (in *inputs) request() *pipeline.Request {
	policy, _ := localTypePolicy(in.walk.LocalTypes)
	return &pipeline.Request{
		Files:           in.files,
		Consumer:        in.consumer,
		WalkAll:         in.walk.All,
		Jobs:            in.walk.Jobs,
		MaxFindings:     in.walk.MaxFindings,
		LocalTypePolicy: policy,
	}
}
