/*
Copyright © 2024 the circlecover authors.
This file is part of circlecover.

circlecover is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

circlecover is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with circlecover.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package circlecoverutil provides command-line and configuration
// utilities for the circlecover model.
package circlecoverutil

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/circlecover"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var logger *logrus.Logger

func init() {
	logger = logrus.StandardLogger()
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
}

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	defaults := circlecover.DefaultConfig()

	// Options are the configuration options available to circlecover.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "PolygonFile",
			usage: `
              PolygonFile is the path to a GeoJSON file holding the polygon
              to be approximated. The geometry must be a Polygon or
              MultiPolygon. The path can include environment variables.`,
			shorthand:  "p",
			defaultVal: "polygon.geojson",
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired GeoJSON output location.
              It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "circlecover_output.geojson",
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "NumCircles",
			usage: `
              NumCircles is the number of circles to fit. If < 1, the number
              of circles is chosen automatically from the range
              [Fit.MinCircles, Fit.MaxCircles].`,
			shorthand:  "n",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "InputProj",
			usage: `
              InputProj gives the spatial projection of the input polygon in
              Proj4 format. It is only required if OutputProj is also set.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "OutputProj",
			usage: `
              OutputProj gives a spatial projection in Proj4 format that the
              input polygon should be transformed to before fitting. If it is
              empty, no transformation happens and the fit runs in the input
              coordinates.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.LearningRate",
			usage: `
              Fit.LearningRate is the gradient descent step size.`,
			defaultVal: defaults.LearningRate,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.MaxIterations",
			usage: `
              Fit.MaxIterations is the maximum number of descent iterations
              per optimization run.`,
			defaultVal: defaults.MaxIterations,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.ConvergenceTolerance",
			usage: `
              Fit.ConvergenceTolerance is the relative loss change below
              which an iteration counts toward convergence.`,
			defaultVal: defaults.ConvergenceTolerance,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.ConvergenceWindow",
			usage: `
              Fit.ConvergenceWindow is the number of consecutive
              below-tolerance iterations required to declare convergence.`,
			defaultVal: defaults.ConvergenceWindow,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.GridSize",
			usage: `
              Fit.GridSize is the rasterization grid resolution; the loss is
              evaluated on a GridSize × GridSize grid over the polygon's
              padded bounding box.`,
			defaultVal: defaults.GridSize,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.Sharpness",
			usage: `
              Fit.Sharpness controls the steepness of the soft circle
              boundaries. Larger values approximate hard edges more closely
              but concentrate the gradient near the boundary.`,
			defaultVal: defaults.Sharpness,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.CoverageWeight",
			usage: `
              Fit.CoverageWeight is the loss weight rewarding overlap between
              the circle union and the polygon.`,
			defaultVal: defaults.CoverageWeight,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.ContainmentWeight",
			usage: `
              Fit.ContainmentWeight is the loss weight penalizing circle mass
              that falls outside the polygon.`,
			defaultVal: defaults.ContainmentWeight,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.RepulsionWeight",
			usage: `
              Fit.RepulsionWeight is the loss weight penalizing overlap
              between circle pairs.`,
			defaultVal: defaults.RepulsionWeight,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.RepulsionScale",
			usage: `
              Fit.RepulsionScale is the fraction of the summed radii of a
              circle pair below which their center distance is penalized.`,
			defaultVal: defaults.RepulsionScale,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.InitRadiusScale",
			usage: `
              Fit.InitRadiusScale scales the initial circle radius relative
              to an equal split of the polygon area among the circles.`,
			defaultVal: defaults.InitRadiusScale,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.MinRadius",
			usage: `
              Fit.MinRadius is the smallest radius a circle is allowed to
              shrink to during optimization.`,
			defaultVal: defaults.MinRadius,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.MinCircles",
			usage: `
              Fit.MinCircles is the smallest candidate circle count tried
              during automatic count selection.`,
			defaultVal: defaults.MinCircles,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.MaxCircles",
			usage: `
              Fit.MaxCircles is the largest candidate circle count tried
              during automatic count selection.`,
			defaultVal: defaults.MaxCircles,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.ElbowImprovement",
			usage: `
              Fit.ElbowImprovement is the relative loss improvement per
              added circle below which automatic count selection stops
              adding circles.`,
			defaultVal: defaults.ElbowImprovement,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.Workers",
			usage: `
              Fit.Workers is the number of concurrent optimization runs
              during automatic count selection. If < 1, one worker per
              processor is used.`,
			defaultVal: defaults.Workers,
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
		{
			name: "Fit.Seed",
			usage: `
              Fit.Seed seeds the pseudo-random circle placement. Runs with
              the same seed and configuration produce identical results.`,
			defaultVal: int(defaults.Seed),
			flagsets:   []*pflag.FlagSet{fitCmd.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CIRCLECOVER")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(fitCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("circlecover: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "circlecover",
	Short: "Approximate polygons with circles.",
	Long: `circlecover approximates a polygon by a set of circles using
differentiable rasterization and gradient descent.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'CIRCLECOVER_var' where 'var' is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration
information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of circlecover.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("circlecover v%s\n", circlecover.Version)
	},
	DisableAutoGenTag: true,
}

// fitCmd fits circles to the polygon in an input file.
var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit circles to a polygon.",
	Long: `fit reads a polygon from a GeoJSON file, fits a set of circles to
it, and writes the fitted circles to a GeoJSON output file. If --NumCircles
is not given, the number of circles is chosen automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := FitConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		poly, err := parsePolygon(Cfg.GetString("PolygonFile"))
		if err != nil {
			return err
		}
		poly, err = reproject(poly, Cfg.GetString("InputProj"), Cfg.GetString("OutputProj"))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := FitPolygon(ctx, poly, Cfg.GetInt("NumCircles"), cfg)
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"circles":  result.N,
			"loss":     result.Loss.Total,
			"coverage": result.Loss.Coverage,
		}).Info("finished fitting circles")

		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("circlecover: creating output file: %w", err)
		}
		defer f.Close()
		return writeCircles(f, result)
	},
	DisableAutoGenTag: true,
}
