package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"model-engine/internal/archive"
	"model-engine/internal/commands"
	"model-engine/internal/config"
	"model-engine/internal/debug"
	"model-engine/internal/graphics"
	"model-engine/internal/meshcache"
	"model-engine/internal/scene"
	"model-engine/internal/smodel"
	"model-engine/internal/stl"
)

type subcommand struct {
	name     string
	summary  string
	register func(a *app, flags *flag.FlagSet) func(args []string) error
}

func subcommands() []subcommand {
	return []subcommand{
		{"files", "list model files in the pack", registerFiles},
		{"dump", "FILE: print named models, exports and imports", registerDump},
		{"floats", "[flags] FILE KEY: print the flat vertex buffer of a model", registerFloats},
		{"indexed", "[flags] FILE KEY: print unique vertices and triangle indices", registerIndexed},
		{"stl", "[flags] FILE KEY -o OUT: write a model as binary STL", registerSTL},
		{"view", "FILE [KEY...]: open the 3D viewer", registerView},
		{"init-config", "write the config file with current settings", registerInitConfig},
	}
}

func registerFiles(a *app, _ *flag.FlagSet) func([]string) error {
	return func(args []string) error {
		if len(args) != 0 {
			return commands.Usage("files: unexpected arguments")
		}
		if err := a.setup(); err != nil {
			return err
		}
		names, err := archive.ListModels(a.fsys)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(a.out, name)
		}
		return nil
	}
}

func registerDump(a *app, _ *flag.FlagSet) func([]string) error {
	return func(args []string) error {
		if len(args) != 1 {
			return commands.Usage("dump: want FILE")
		}
		if err := a.setup(); err != nil {
			return err
		}
		ws, err := a.parser.ParseFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "File: %s\n", ws.File())
		fmt.Fprint(a.out, ws.String())
		if imports := ws.Imports(); len(imports) > 0 {
			fmt.Fprintln(a.out, "\nImports:")
			for _, imp := range imports {
				if imp.Err != nil {
					fmt.Fprintf(a.out, "    %s: failed: %v\n", imp.File, imp.Err)
					continue
				}
				fmt.Fprintf(a.out, "    %s: %s\n", imp.File, strings.Join(imp.Models, ", "))
			}
		}
		fmt.Fprintln(a.out, "\nFiles:")
		for _, f := range ws.Files() {
			fmt.Fprintf(a.out, "    %s\n", f)
		}
		return nil
	}
}

// selection picks which model of a file a command works on and how it is post-processed.
type selection struct {
	named      bool
	tessellate bool
}

func selectionFlags(flags *flag.FlagSet) *selection {
	sel := &selection{}
	flags.BoolVar(&sel.named, "named", false, "KEY is a named model of FILE rather than an exported key")
	flags.BoolVar(&sel.tessellate, "tessellate", false, "split every triangle into three at its centroid")
	return sel
}

// modelData parses file and returns the flat buffer of key with its vertex count.
func (a *app) modelData(file, key string, sel *selection) ([]float32, int, error) {
	ws, err := a.parser.ParseFile(file)
	if err != nil {
		return nil, 0, err
	}
	if !sel.tessellate {
		if sel.named {
			return ws.ModelData(key)
		}
		return ws.ExportedModelData(key)
	}
	lookup := ws.ExportedModel
	if sel.named {
		lookup = ws.Model
	}
	m, err := lookup(key)
	if err != nil {
		return nil, 0, err
	}
	floats := smodel.Flatten(smodel.Tessellate(m))
	return floats, len(floats) / 3, nil
}

func registerFloats(a *app, flags *flag.FlagSet) func([]string) error {
	normals := flags.Bool("normals", false, "also print flat face normals")
	sel := selectionFlags(flags)
	return func(args []string) error {
		if len(args) != 2 {
			return commands.Usage("floats: want FILE KEY")
		}
		if err := a.setup(); err != nil {
			return err
		}
		floats, n, err := a.modelData(args[0], args[1], sel)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "vertices %d\n", n)
		writeTriples(a.out, floats, formatFloat)
		if *normals {
			fmt.Fprintf(a.out, "normals %d\n", n)
			writeTriples(a.out, smodel.CalculateNormals(floats), formatFloat)
		}
		return nil
	}
}

func registerIndexed(a *app, flags *flag.FlagSet) func([]string) error {
	sel := selectionFlags(flags)
	return func(args []string) error {
		if len(args) != 2 {
			return commands.Usage("indexed: want FILE KEY")
		}
		if err := a.setup(); err != nil {
			return err
		}
		floats, _, err := a.modelData(args[0], args[1], sel)
		if err != nil {
			return err
		}
		ix := smodel.NewIndexed(floats)
		fmt.Fprintf(a.out, "vertices %d\n", len(ix.Vertices)/3)
		writeTriples(a.out, ix.Vertices, formatFloat)
		fmt.Fprintf(a.out, "triangles %d\n", len(ix.Indices)/3)
		writeTriples(a.out, ix.Indices, func(i uint32) string { return strconv.FormatUint(uint64(i), 10) })
		return nil
	}
}

func registerSTL(a *app, flags *flag.FlagSet) func([]string) error {
	out := flags.String("o", "", "output STL path")
	sel := selectionFlags(flags)
	return func(args []string) error {
		if len(args) != 2 {
			return commands.Usage("stl: want FILE KEY")
		}
		if *out == "" {
			return commands.Usage("stl: -o is required")
		}
		if err := a.setup(); err != nil {
			return err
		}
		floats, n, err := a.modelData(args[0], args[1], sel)
		if err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err := stl.Write(f, args[1], floats); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		a.slog.Info("wrote stl", "file", *out, "key", args[1], "facets", n/3)
		return nil
	}
}

func registerView(a *app, flags *flag.FlagSet) func([]string) error {
	spacing := flags.Float64("spacing", 4, "distance between models along X")
	return func(args []string) error {
		if len(args) < 1 {
			return commands.Usage("view: want FILE [KEY...]")
		}
		if err := a.setup(); err != nil {
			return err
		}
		keys, load, err := a.prepareView(args[0], args[1:])
		if err != nil {
			return err
		}
		cache := meshcache.New()
		scn := scene.New(cache)
		scn.Defer(load)
		scn.Place(scene.Layout(keys, float32(*spacing))...)
		overlay := debug.New(scn.Stats)
		overlay.SetLog(a.log.Lines)

		win := graphics.Window{
			Title:      "smodel - " + args[0],
			Width:      a.cfg.Window.Width,
			Height:     a.cfg.Window.Height,
			Fullscreen: a.cfg.Window.Fullscreen,
			FPS:        a.cfg.Window.FPS,
		}
		a.slog.Info("opening viewer", "file", args[0], "models", len(keys))
		err = graphics.Run(win, scn.Update, func() {
			scn.Draw()
			overlay.Draw()
		})
		if err != nil {
			a.slog.Error("viewer failed", "err", err)
		}
		return err
	}
}

// prepareView resolves everything the viewer shows before a window exists, so bad input fails
// early. It returns the keys to place and the GPU upload to run once a context exists. file
// is a model file or a binary .stl; configured preload models are appended under
// meshcache.RefKey so they never replace a model of file.
func (a *app) prepareView(file string, keys []string) ([]string, func(*meshcache.Cache) error, error) {
	var loads []func(*meshcache.Cache) error
	if strings.EqualFold(path.Ext(file), ".stl") {
		if len(keys) > 0 {
			return nil, nil, commands.Usage("view: keys are not accepted for STL files")
		}
		data, err := fs.ReadFile(a.fsys, path.Clean(file))
		if err != nil {
			return nil, nil, err
		}
		floats, err := stl.Read(bytes.NewReader(data))
		if err != nil {
			return nil, nil, err
		}
		key := path.Base(file)
		keys = []string{key}
		loads = append(loads, func(c *meshcache.Cache) error {
			_, err := c.LoadForeign(key, floats, meshcache.Triangles)
			return err
		})
	} else {
		ws, err := a.parser.ParseFile(file)
		if err != nil {
			return nil, nil, err
		}
		if len(keys) == 0 {
			keys = ws.ExportedKeys()
		}
		for _, k := range keys {
			if _, err := ws.ExportedModel(k); err != nil {
				return nil, nil, err
			}
		}
		shown := append([]string(nil), keys...)
		loads = append(loads, func(c *meshcache.Cache) error {
			for _, k := range shown {
				if _, err := c.LoadExported(ws, k); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if preload := a.cfg.Preload; len(preload) > 0 {
		seen := make(map[string]bool, len(preload))
		for _, ref := range preload {
			if key := meshcache.RefKey(ref); !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
		loads = append(loads, func(c *meshcache.Cache) error {
			_, err := c.LoadList(a.parser, preload)
			return err
		})
	}
	if len(keys) == 0 {
		return nil, nil, fmt.Errorf("view: %s exports no models", file)
	}
	return keys, func(c *meshcache.Cache) error {
		for _, load := range loads {
			if err := load(c); err != nil {
				return err
			}
		}
		return nil
	}, nil
}

func registerInitConfig(a *app, flags *flag.FlagSet) func([]string) error {
	force := flags.Bool("force", false, "overwrite an existing config file")
	return func(args []string) error {
		if len(args) != 0 {
			return commands.Usage("init-config: unexpected arguments")
		}
		if _, err := os.Stat(a.flags.configPath); err == nil && !*force {
			return fmt.Errorf("%s already exists (use -force to overwrite)", a.flags.configPath)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := a.loadConfig(); err != nil {
			return err
		}
		if err := config.Save(a.flags.configPath, a.cfg); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "wrote %s\n", a.flags.configPath)
		return nil
	}
}

func formatFloat(f float32) string {
	if f == 0 {
		f = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// writeTriples prints vals three per line.
func writeTriples[T any](w io.Writer, vals []T, format func(T) string) {
	for i := 0; i+2 < len(vals); i += 3 {
		fmt.Fprintf(w, "%s %s %s\n", format(vals[i]), format(vals[i+1]), format(vals[i+2]))
	}
}
