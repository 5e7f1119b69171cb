// Package cliargs declares the flag sets shared by batch-task commands:
// input and output file triples, secret locations and orchestration
// tags, plus the URI assembly rules that go with them.
package cliargs

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/pkg/objectstore"
	"github.com/systmms/containerkit/pkg/secrets"
)

// Requirement states whether a flag group is registered, and if so
// whether the user must provide it.
type Requirement int

const (
	Unused Requirement = iota
	Optional
	Required
)

// Spec selects which flag groups a command carries.
type Spec struct {
	InputFiles      Requirement
	OutputFiles     Requirement
	SecretLocations Requirement
	DefaultFileType Requirement
	RunningLocal    Requirement
	IdentifyingTags Requirement
}

// Args holds the parsed values. Fields for unregistered groups stay at
// their zero values.
type Args struct {
	InputBuckets     []string
	InputPaths       []string
	InputFilenames   []string
	InputDelimiters  []string
	OutputBuckets    []string
	OutputPaths      []string
	OutputFilenames  []string
	OutputDelimiters []string

	SecretLocations secrets.Locations
	DefaultFileType objectstore.Format
	RunningLocal    bool

	DagID     string
	RunID     string
	Namespace string
	PodName   string

	spec                Spec
	secretLocationsJSON string
	defaultFileType     string
}

// Register adds the selected flag groups to the command and returns
// the Args that will receive their values.
func (s Spec) Register(cmd *cobra.Command) *Args {
	a := &Args{spec: s, SecretLocations: secrets.DefaultLocations()}
	flags := cmd.Flags()

	if s.InputFiles != Unused {
		flags.StringSliceVar(&a.InputBuckets, "input-bucket-names", nil, "Buckets to read from")
		flags.StringSliceVar(&a.InputPaths, "input-paths", nil, "Folders in bucket to read from")
		flags.StringSliceVar(&a.InputFilenames, "input-filenames", nil, "Filenames to read")
		flags.StringSliceVar(&a.InputDelimiters, "input-delimiters", nil, "Delimiters for input files")
		if s.InputFiles == Required {
			cmd.MarkFlagRequired("input-bucket-names")
			cmd.MarkFlagRequired("input-paths")
			cmd.MarkFlagRequired("input-filenames")
		}
	}
	if s.OutputFiles != Unused {
		flags.StringSliceVar(&a.OutputBuckets, "output-bucket-names", nil, "Buckets to write to")
		flags.StringSliceVar(&a.OutputPaths, "output-paths", nil, "Folders in bucket to write to")
		flags.StringSliceVar(&a.OutputFilenames, "output-filenames", nil, "Filenames to write")
		flags.StringSliceVar(&a.OutputDelimiters, "output-delimiters", nil, "Delimiters for output files")
		if s.OutputFiles == Required {
			cmd.MarkFlagRequired("output-bucket-names")
			cmd.MarkFlagRequired("output-paths")
			cmd.MarkFlagRequired("output-filenames")
		}
	}
	if s.SecretLocations != Unused {
		flags.StringVar(&a.secretLocationsJSON, "secret-locations", "",
			"JSON map of module key to secret file path, merged over the defaults")
		if s.SecretLocations == Required {
			cmd.MarkFlagRequired("secret-locations")
		}
	}
	if s.DefaultFileType != Unused {
		flags.StringVar(&a.defaultFileType, "default-file-type", string(objectstore.FormatParquet),
			"Format for files without a recognized extension (parquet, csv, json or raw)")
	}
	if s.RunningLocal != Unused {
		flags.BoolVar(&a.RunningLocal, "running-local", false,
			"Skip cloud access when running outside the cluster")
	}
	if s.IdentifyingTags != Unused {
		flags.StringVar(&a.DagID, "dag-id", "", "The DAG ID")
		flags.StringVar(&a.RunID, "run-id", "", "The run ID")
		flags.StringVar(&a.Namespace, "namespace", "", "The namespace")
		flags.StringVar(&a.PodName, "pod-name", "", "The pod name")
		if s.IdentifyingTags == Required {
			cmd.MarkFlagRequired("dag-id")
			cmd.MarkFlagRequired("run-id")
			cmd.MarkFlagRequired("namespace")
			cmd.MarkFlagRequired("pod-name")
		}
	}

	return a
}

// Finalize validates the parsed values, folds the secret-locations
// JSON into the location map and exports the identifying tags to the
// environment for downstream metadata tagging.
func (a *Args) Finalize() error {
	if err := a.checkFileGroup("input", a.InputBuckets, a.InputPaths, a.InputFilenames); err != nil {
		return err
	}
	if err := a.checkFileGroup("output", a.OutputBuckets, a.OutputPaths, a.OutputFilenames); err != nil {
		return err
	}

	if a.secretLocationsJSON != "" {
		if err := a.SecretLocations.MergeJSON(a.secretLocationsJSON); err != nil {
			return dserrors.UserError{
				Message:    "invalid --secret-locations value",
				Suggestion: `Pass a JSON object like '{"S3": "/vault/secrets/aws-credentials.json"}'`,
				Err:        err,
			}
		}
	}

	if a.defaultFileType != "" {
		format, err := objectstore.ParseFormat(a.defaultFileType)
		if err != nil {
			return dserrors.UserError{
				Message:    "invalid --default-file-type value",
				Suggestion: "Use parquet, csv, json or raw",
				Err:        err,
			}
		}
		a.DefaultFileType = format
	}

	if a.spec.IdentifyingTags != Unused {
		for name, value := range map[string]string{
			"DAG_ID":    a.DagID,
			"RUN_ID":    a.RunID,
			"NAMESPACE": a.Namespace,
			"POD_NAME":  a.PodName,
		} {
			if value != "" {
				os.Setenv(name, value)
			}
		}
	}

	return nil
}

// InputURIs assembles one object URI per input filename. A single
// bucket is broadcast across all filenames.
func (a *Args) InputURIs() []string {
	return buildURIs(a.InputBuckets, a.InputPaths, a.InputFilenames)
}

// OutputURIs assembles one object URI per output filename, with the
// same broadcast rule as InputURIs.
func (a *Args) OutputURIs() []string {
	return buildURIs(a.OutputBuckets, a.OutputPaths, a.OutputFilenames)
}

func (a *Args) checkFileGroup(kind string, buckets, paths, filenames []string) error {
	if len(buckets) == 0 && len(paths) == 0 && len(filenames) == 0 {
		return nil
	}
	if len(paths) != len(filenames) {
		return dserrors.UserError{
			Message:    fmt.Sprintf("%d %s paths for %d filenames", len(paths), kind, len(filenames)),
			Suggestion: fmt.Sprintf("Pass one --%s-paths entry per --%s-filenames entry", kind, kind),
		}
	}
	if len(buckets) != 1 && len(buckets) != len(filenames) {
		return dserrors.UserError{
			Message:    fmt.Sprintf("%d %s buckets for %d filenames", len(buckets), kind, len(filenames)),
			Suggestion: fmt.Sprintf("Pass either one --%s-bucket-names entry or one per filename", kind),
		}
	}
	return nil
}

func buildURIs(buckets, paths, filenames []string) []string {
	if len(filenames) == 0 {
		return nil
	}
	uris := make([]string, len(filenames))
	for i, filename := range filenames {
		bucket := buckets[0]
		if len(buckets) > 1 {
			bucket = buckets[i]
		}
		uris[i] = objectstore.JoinURI(bucket, paths[i], filename)
	}
	return uris
}
