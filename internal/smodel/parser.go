// Package smodel reads SimpleModel files: a plain-text format of named vertices, triangles and
// models with transforms, procedural shapes, namespaced exports and file imports.
//
// A file is tokenized, interpreted directive by directive into a Workspace, and finally its
// queued exports are published under "namespace.model" keys. Imports parse other files into
// child workspaces that share one import guard, so a file can appear only once per tree.
package smodel

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
)

// Options configures a Parser.
type Options struct {
	// FS is the model search root; file names and imports resolve against it.
	// Nil means the process working directory.
	FS fs.FS
	// Logger receives parse diagnostics. Nil discards them.
	Logger *slog.Logger
	// LenientImports records failed imports in Workspace.Imports and carries on with the
	// importing file unchanged instead of failing it.
	LenientImports bool
}

// Parser turns model files into workspaces. It holds configuration only and may be reused.
type Parser struct {
	fsys    fs.FS
	log     *slog.Logger
	lenient bool
}

// NewParser returns a parser for the given options.
func NewParser(opts Options) *Parser {
	p := &Parser{fsys: opts.FS, log: opts.Logger, lenient: opts.LenientImports}
	if p.fsys == nil {
		p.fsys = os.DirFS(".")
	}
	if p.log == nil {
		p.log = slog.New(slog.DiscardHandler)
	}
	return p
}

// ParseFile parses name and every file it imports.
func (p *Parser) ParseFile(name string) (*Workspace, error) {
	guard := importGuard{}
	ws, err := p.parse(name, nil, guard, true)
	if err != nil {
		return nil, err
	}
	ws.files = guard
	return ws, nil
}

// Parse parses src as the top-level file name. Imports are still read from the parser's FS.
func (p *Parser) Parse(name string, src []byte) (*Workspace, error) {
	if src == nil {
		src = []byte{}
	}
	guard := importGuard{}
	ws, err := p.parse(name, src, guard, true)
	if err != nil {
		return nil, err
	}
	ws.files = guard
	return ws, nil
}

// parse registers name in the guard, interprets it and publishes its exports. src is read
// from the FS when nil.
func (p *Parser) parse(name string, src []byte, guard importGuard, top bool) (*Workspace, error) {
	key := path.Clean(name)
	if _, ok := guard[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrImportCycle, key)
	}
	ws := newWorkspace(key)
	guard[key] = ws

	if src == nil {
		b, err := fs.ReadFile(p.fsys, key)
		if err != nil {
			return nil, &IOError{Path: key, Err: err}
		}
		src = b
	}

	toks := Tokenize(src)
	in := &interpreter{p: p, ws: ws, guard: guard, toks: toks}
	if err := in.run(); err != nil {
		return nil, err
	}
	ws.finalize()
	ws.release(top)

	p.log.Debug("parsed model file",
		"file", key,
		"tokens", len(toks),
		"models", len(ws.models),
		"exports", len(ws.exported),
		"imports", len(ws.imports))
	return ws, nil
}

// importInto parses name as a child of ws and copies its exports into ws's named models.
// Name collisions are checked before anything is copied, so a failed import leaves ws as it was.
func (p *Parser) importInto(ws *Workspace, tok Token, guard importGuard) ImportResult {
	res := ImportResult{File: path.Clean(tok.Text)}
	child, err := p.parse(tok.Text, nil, guard, false)
	if err != nil {
		res.Err = err
		return res
	}
	keys := child.ExportedKeys()
	for _, k := range keys {
		if _, ok := ws.models[k]; ok {
			res.Err = &ParseError{File: ws.file, Line: tok.Line, Token: k, Msg: "importing preexisting model"}
			return res
		}
	}
	for _, k := range keys {
		ws.models[k] = child.exported[k].Clone()
	}
	res.Models = keys
	return res
}
