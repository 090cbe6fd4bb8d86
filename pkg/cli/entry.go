// Package cli is the py command: global option parsing, the first-token
// dispatch table, and the heuristic action classifier. It wires the
// interpreter namespace, the import database, the argument binder, and
// the result printer into one invocation.
package cli

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	goimports "golang.org/x/tools/imports"

	"github.com/Carreau/pyflyby/internal/bind"
	"github.com/Carreau/pyflyby/internal/builtins"
	"github.com/Carreau/pyflyby/internal/config"
	"github.com/Carreau/pyflyby/internal/importdb"
	"github.com/Carreau/pyflyby/internal/interp"
	"github.com/Carreau/pyflyby/internal/logging"
	"github.com/Carreau/pyflyby/internal/mode"
	"github.com/Carreau/pyflyby/internal/output"
	"github.com/Carreau/pyflyby/internal/parse"
	"github.com/Carreau/pyflyby/internal/sig"
)

// session holds the per-invocation state. One process, one session.
type session struct {
	ns       *interp.Namespace
	db       *importdb.DB
	argMode  mode.ArgMode
	outMode  mode.OutputMode
	stdin    io.Reader
	stdinTTY bool
	stdout   io.Writer
	stderr   io.Writer
}

// preExit runs after the selected action completes. The seam exists for
// output sinks that need flushing before the process ends.
func preExit() {}

func Run() {
	tty := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	code := Main(os.Args[1:], os.Stdin, tty, os.Stdout, os.Stderr)
	preExit()
	os.Exit(code)
}

// Main runs one py invocation and returns its exit code.
func Main(args []string, stdin io.Reader, stdinTTY bool, stdout, stderr io.Writer) int {
	logging.SetOutput(stderr)
	s := &session{
		argMode:  mode.ArgAuto,
		outMode:  mode.OutInteractive,
		stdin:    stdin,
		stdinTTY: stdinTTY,
		stdout:   stdout,
		stderr:   stderr,
	}
	rest, ok := s.globalOptions(args)
	if !ok {
		return 1
	}
	if err := s.initNamespace(); err != nil {
		return s.fail(err)
	}
	return s.dispatch(rest)
}

// globalOptions consumes leading pre-action flags. It stops at the first
// token it does not recognize; that token belongs to the dispatcher.
func (s *session) globalOptions(args []string) ([]string, bool) {
	for len(args) > 0 {
		arg := args[0]
		if !strings.HasPrefix(arg, "-") || arg == "-" || arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		value := ""
		hasValue := false
		if i := strings.IndexByte(name, '='); i >= 0 {
			name, value, hasValue = name[:i], name[i+1:], true
		}

		needValue := func() bool {
			if hasValue {
				return true
			}
			if len(args) >= 2 {
				value = args[1]
				args = args[1:]
				return true
			}
			fmt.Fprintf(s.stderr, "py: option %s requires a value\n", arg)
			return false
		}

		switch name {
		case "args", "arguments", "arg-mode", "arg_mode":
			if !needValue() {
				return nil, false
			}
			m, err := mode.ResolveArgMode(value, mode.ArgAuto)
			if err != nil {
				fmt.Fprintf(s.stderr, "py: %s\n", err)
				return nil, false
			}
			s.argMode = m
		case "output", "out", "o":
			if !needValue() {
				return nil, false
			}
			m, err := mode.ResolveOutputMode(value, mode.OutInteractive)
			if err != nil {
				fmt.Fprintf(s.stderr, "py: %s\n", err)
				return nil, false
			}
			s.outMode = m
		case "print", "p":
			s.outMode = mode.OutStr
		case "pprint":
			s.outMode = mode.OutPPrint
		case "repr":
			s.outMode = mode.OutRepr
		case "silent":
			s.outMode = mode.OutSilent
		case "safe":
			os.Setenv(config.PathEnvVar, config.EmptyPathSentinel)
			os.Setenv(config.KnownImportsEnvVar, "")
			os.Setenv(config.MandatoryImportsEnvVar, "")
		case "quiet", "q":
			logging.SetQuiet()
		case "verbose":
			logging.SetVerbose()
		default:
			return args, true
		}
		args = args[1:]
	}
	return args, true
}

func (s *session) initNamespace() error {
	db := importdb.New()
	if err := db.LoadEnv(); err != nil {
		return err
	}
	ns, err := interp.NewNamespace(db)
	if err != nil {
		return err
	}
	if err := builtins.Install(ns); err != nil {
		return err
	}
	s.db, s.ns = db, ns
	return nil
}

// dispatch is the first-token decision table. Anything it does not claim
// falls through to the heuristic classifier.
func (s *session) dispatch(args []string) int {
	if len(args) == 0 || args[0] == "-" {
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		return s.runStdin(rest)
	}
	arg0, rest := args[0], args[1:]

	if strings.HasPrefix(arg0, "%") {
		fmt.Fprintf(s.stderr, "py: %%magic commands are not supported: %s\n", arg0)
		return 1
	}

	switch arg0 {
	case "?":
		return s.helpAction(rest)
	case "??":
		return s.sourceAction(rest)
	}

	if strings.HasPrefix(arg0, "--") {
		name := arg0[2:]
		value := ""
		hasValue := false
		if i := strings.IndexByte(name, '='); i >= 0 {
			name, value, hasValue = name[:i], name[i+1:], true
		}
		target := func() (string, []string, bool) {
			if hasValue {
				return value, rest, true
			}
			if len(rest) > 0 {
				return rest[0], rest[1:], true
			}
			fmt.Fprintf(s.stderr, "py: %s requires an argument\n", arg0)
			return "", nil, false
		}
		switch name {
		case "eval", "c", "e":
			code, argv, ok := target()
			if !ok {
				return 1
			}
			return s.runCode(parse.NewBlock(code), argv)
		case "file", "execfile", "exec-file", "f", "run":
			path, argv, ok := target()
			if !ok {
				return 1
			}
			return s.runFile(path, argv)
		case "apply", "call":
			fn, tokens, ok := target()
			if !ok {
				return 1
			}
			return s.applyName(fn, tokens)
		case "map":
			fn, tokens, ok := target()
			if !ok {
				return 1
			}
			return s.mapAction(fn, tokens)
		case "module", "m", "run-module", "runmodule":
			pkg, tokens, ok := target()
			if !ok {
				return 1
			}
			return s.moduleAction(pkg, tokens)
		case "version":
			return s.versionAction(rest)
		case "help", "h", "?":
			return s.helpAction(rest)
		case "source", "pinfo2", "??":
			return s.sourceAction(rest)
		}
		return s.unknownOption(arg0, rest)
	}

	if strings.HasPrefix(arg0, "-") {
		switch {
		case arg0 == "-c" || arg0 == "-e":
			if len(rest) == 0 {
				fmt.Fprintf(s.stderr, "py: %s requires an argument\n", arg0)
				return 1
			}
			return s.runCode(parse.NewBlock(rest[0]), rest[1:])
		case strings.HasPrefix(arg0, "-c"):
			return s.runCode(parse.NewBlock(arg0[2:]), rest)
		case arg0 == "-m":
			if len(rest) == 0 {
				fmt.Fprintf(s.stderr, "py: -m requires a package name\n")
				return 1
			}
			return s.moduleAction(rest[0], rest[1:])
		case strings.HasPrefix(arg0, "-m"):
			return s.moduleAction(arg0[2:], rest)
		case arg0 == "-h" || arg0 == "-?":
			return s.helpAction(rest)
		case arg0 == "-??":
			return s.sourceAction(rest)
		}
		return s.unknownOption(arg0, rest)
	}

	// ?/?? prefix and suffix forms on a bare name: "b64decode?" asks for
	// help, "??b64decode" for source.
	if t := strings.TrimPrefix(arg0, "??"); t != arg0 {
		return s.sourceAction(append([]string{t}, rest...))
	}
	if t := strings.TrimSuffix(arg0, "??"); t != arg0 {
		return s.sourceAction(append([]string{t}, rest...))
	}
	if t := strings.TrimPrefix(arg0, "?"); t != arg0 {
		return s.helpAction(append([]string{t}, rest...))
	}
	if t := strings.TrimSuffix(arg0, "?"); t != arg0 {
		return s.helpAction(append([]string{t}, rest...))
	}

	return s.heuristicCmd(arg0, rest)
}

func (s *session) unknownOption(arg0 string, rest []string) int {
	fmt.Fprintf(s.stderr, "py: unknown option %s\n", arg0)
	full := strings.Join(append([]string{arg0}, rest...), " ")
	fmt.Fprintf(s.stderr, "If you meant to evaluate code, use: py -c %q\n", full)
	return 1
}

// runCode evaluates one block with argv installed, prints the result,
// and reports arguments the code never read.
func (s *session) runCode(b *parse.Block, argvItems []string) int {
	argv := NewArgv(argvItems)
	if err := s.ns.Define("argv", argv); err != nil {
		return s.fail(err)
	}
	v, err := s.ns.AutoEval(b, true)
	if err != nil {
		return s.fail(err)
	}
	code := s.finish(v)
	if c := argv.complaint(); c != "" {
		fmt.Fprintf(s.stderr, "py: %s\n", c)
		if code == 0 {
			code = 1
		}
	}
	return code
}

func (s *session) runStdin(argvItems []string) int {
	if s.stdinTTY {
		fmt.Fprintln(s.stderr, "py: no command given and stdin is a terminal")
		fmt.Fprintln(s.stderr, `Run "py --help" for usage, or pipe code on stdin.`)
		return 0
	}
	data, err := io.ReadAll(s.stdin)
	if err != nil {
		return s.fail(err)
	}
	return s.runCode(parse.NewBlock(string(data)), argvItems)
}

// runFile executes a source file. Missing import clauses are filled in
// first, so snippet-style files that use fmt or strings without an
// import block still run.
func (s *session) runFile(path string, argvItems []string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return s.fail(err)
	}
	src, err := goimports.Process(path, data, nil)
	if err != nil {
		fmt.Fprintf(s.stderr, "py: %s\n", err)
		return 1
	}
	argv := NewArgv(argvItems)
	if err := s.ns.Define("argv", argv); err != nil {
		return s.fail(err)
	}
	logging.Info("run %s", path)
	if _, err := s.ns.Eval(string(src)); err != nil {
		return s.fail(err)
	}
	if declaresMain(path, src) {
		if _, err := s.ns.Eval("main()"); err != nil {
			return s.fail(err)
		}
	}
	code := 0
	if c := argv.complaint(); c != "" {
		fmt.Fprintf(s.stderr, "py: %s\n", c)
		code = 1
	}
	return code
}

func declaresMain(path string, src []byte) bool {
	f, err := parser.ParseFile(token.NewFileSet(), path, src, 0)
	if err != nil {
		return false
	}
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Recv == nil && fd.Name.Name == "main" {
			return true
		}
	}
	return false
}

// callableFor resolves an action target: a registered callable by name,
// or an expression evaluating to a function.
func (s *session) callableFor(expr string) (sig.Callable, any, error) {
	if c, ok := s.ns.LookupCallable(expr); ok {
		return c, nil, nil
	}
	b := parse.NewBlock(expr)
	if !b.ParsableAsExpression() {
		return nil, nil, &parse.SyntaxError{Source: expr}
	}
	v, err := s.ns.AutoEval(b, true)
	if err != nil {
		return nil, nil, err
	}
	if c, ok := interp.AsCallable(expr, v); ok {
		return c, v, nil
	}
	return nil, v, &interp.NotCallableError{Name: expr, Value: v}
}

func (s *session) applyName(expr string, tokens []string) int {
	c, v, err := s.callableFor(expr)
	if err != nil {
		var nc *interp.NotCallableError
		if errors.As(err, &nc) {
			fmt.Fprintf(s.stderr, "py: %s\n", nc.Error())
			code := s.finish(v)
			if len(tokens) > 0 {
				return 1
			}
			return code
		}
		return s.fail(err)
	}
	return s.apply(c, tokens)
}

// apply binds tokens against the callable's signature and invokes it.
// Help and source interrupts from the binder are consumed here.
func (s *session) apply(c sig.Callable, tokens []string) int {
	res, err := bind.Bind(c.Signature(), tokens, s.ns, s.argMode, s.stdin)
	if err != nil {
		var pe *bind.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintf(s.stderr, "py: %s\n", pe.Msg)
			fmt.Fprint(s.stderr, usageString(c))
			return 1
		}
		return s.fail(err)
	}
	switch res.Outcome {
	case bind.WantHelp:
		printHelp(s.stdout, c, 1)
		return 0
	case bind.WantSource:
		printHelp(s.stdout, c, 2)
		return 0
	}
	logging.Info("%s", renderCall(c.Name(), res.Args, res.Kwargs))
	v, err := c.Call(res.Args, res.Kwargs)
	if err != nil {
		return s.fail(err)
	}
	return s.finish(v)
}

// mapAction applies the callable once per remaining token. "--" switches
// the remaining tokens to literal strings.
func (s *session) mapAction(expr string, tokens []string) int {
	c, _, err := s.callableFor(expr)
	if err != nil {
		return s.fail(err)
	}
	literal := false
	for _, tok := range tokens {
		if !literal && tok == "--" {
			literal = true
			continue
		}
		var v any
		if literal {
			v = tok
		} else {
			v, err = bind.ParseValueOrString(tok, s.ns, s.argMode)
			if err != nil {
				return s.fail(err)
			}
		}
		r, err := c.Call([]any{v}, nil)
		if err != nil {
			return s.fail(err)
		}
		if code := s.finish(r); code != 0 {
			return code
		}
	}
	return 0
}

func (s *session) moduleAction(name string, rest []string) int {
	e, ok := resolveModule(s.db, name)
	if !ok {
		if !identifierPath(name) {
			fmt.Fprintf(s.stderr, "py: invalid package name %q\n", name)
			return 1
		}
		// Unlisted path: attempt the import anyway, the interpreter has
		// the final say on what exists.
		path := strings.ReplaceAll(name, ".", "/")
		short := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			short = path[i+1:]
		}
		e = importdb.Entry{Name: short, Path: path}
	}
	return s.runModule(e, rest)
}

// runModule imports a package and describes it. Single trailing
// version/help/source flags print metadata instead.
func (s *session) runModule(e importdb.Entry, rest []string) int {
	if len(rest) == 1 {
		switch rest[0] {
		case "--version", "-version", "-V":
			if e.Version == "" {
				fmt.Fprintf(s.stderr, "py: version of %s is unknown\n", e.Path)
				return 1
			}
			fmt.Fprintf(s.stdout, "%s, version %s\n", e.Path, e.Version)
			return 0
		case "--help", "-help", "--h", "-h", "-?", "?", "--?":
			return s.moduleHelp(e, 1)
		case "--source", "-source", "-??", "??", "--??":
			return s.moduleHelp(e, 2)
		}
	}
	if len(rest) > 0 {
		fmt.Fprintf(s.stderr, "py: cannot pass arguments to package %s\n", e.Path)
		return 1
	}
	if err := s.ns.Import(e.Name, e.Path); err != nil {
		return s.fail(err)
	}
	syms := interp.PackageSymbols(e.Path)
	fmt.Fprintf(s.stdout, "package %s (%d exported symbols)\n", e.Path, len(syms))
	return 0
}

func (s *session) moduleHelp(e importdb.Entry, verbosity int) int {
	fmt.Fprintf(s.stdout, "package %s\n", e.Path)
	if e.Version != "" {
		fmt.Fprintf(s.stdout, "version %s\n", e.Version)
	}
	syms := interp.PackageSymbols(e.Path)
	if len(syms) == 0 {
		fmt.Fprintln(s.stdout, "no symbol information available")
		return 0
	}
	if verbosity >= 2 {
		fmt.Fprintf(s.stdout, "\nimport %q\n\n%s\n", e.Path, strings.Join(syms, "\n"))
	} else {
		fmt.Fprintf(s.stdout, "%d exported symbols: %s\n", len(syms), strings.Join(syms, ", "))
	}
	return 0
}

func (s *session) versionAction(rest []string) int {
	if len(rest) == 0 {
		fmt.Fprintf(s.stdout, "py, version %s\n", config.Version)
		return 0
	}
	code := 0
	for _, pkg := range rest {
		e, ok := resolveModule(s.db, pkg)
		if !ok || e.Version == "" {
			fmt.Fprintf(s.stderr, "py: version of %s is unknown\n", pkg)
			code = 1
			continue
		}
		fmt.Fprintf(s.stdout, "%s, version %s\n", e.Path, e.Version)
	}
	return code
}

func (s *session) helpAction(rest []string) int {
	if len(rest) == 0 {
		generalUsage(s.stdout)
		return 0
	}
	return s.describe(rest[0], 1)
}

func (s *session) sourceAction(rest []string) int {
	if len(rest) == 0 {
		generalUsage(s.stdout)
		return 0
	}
	return s.describe(rest[0], 2)
}

// describe prints documentation for a callable, package, or plain value.
func (s *session) describe(name string, verbosity int) int {
	if c, ok := s.ns.LookupCallable(name); ok {
		printHelp(s.stdout, c, verbosity)
		return 0
	}
	if e, ok := resolveModule(s.db, name); ok {
		return s.moduleHelp(e, verbosity)
	}
	c, _, err := s.callableFor(name)
	if err == nil {
		printHelp(s.stdout, c, verbosity)
		return 0
	}
	var nc *interp.NotCallableError
	if errors.As(err, &nc) {
		fmt.Fprintf(s.stdout, "%#v\n", nc.Value)
		return 0
	}
	fmt.Fprintf(s.stderr, "py: cannot find documentation for %q\n", name)
	return 1
}

func (s *session) finish(v any) int {
	err := output.New(s.stdout, s.outMode).Print(v)
	if err == nil {
		return 0
	}
	var req *output.ExitRequest
	if errors.As(err, &req) {
		return req.Code
	}
	return s.fail(err)
}

func (s *session) fail(err error) int {
	logging.Error("%s", err)
	return 1
}

func renderCall(name string, args []any, kwargs map[string]any) string {
	parts := make([]string, 0, len(args)+len(kwargs))
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%#v", a))
	}
	names := make([]string, 0, len(kwargs))
	for k := range kwargs {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%#v", k, kwargs[k]))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", "))
}
