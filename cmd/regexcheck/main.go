// Command regexcheck reports regular expressions in Java, PHP and Python
// sources, or listed in a pattern manifest, that are open to catastrophic
// backtracking or contain structural mistakes.
//
// Usage:
//
//	regexcheck [-manifest file] [-include glob] [-match full|partial|both] [-j n] [paths...]
//	regexcheck -re pattern [-dialect java|php|python|plain] [-flags imsx] [-dot file]
//
// The exit status is 1 when an issue was reported and 2 on errors, including
// a -re or manifest pattern that does not parse.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/dlclark/regexcheck"
	"github.com/dlclark/regexcheck/finders"
	"github.com/dlclark/regexcheck/internal/manifest"
	"github.com/dlclark/regexcheck/internal/scan"
	"github.com/dlclark/regexcheck/syntax"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("regexcheck: ")
	os.Exit(run(os.Args[1:], os.Stdout))
}

const (
	exitClean  = 0
	exitIssues = 1
	exitError  = 2
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// target is one pattern to check along with where it came from.
type target struct {
	pos       string
	source    *syntax.Source
	options   syntax.RegexOptions
	matchType finders.MatchType
}

func run(args []string, stdout io.Writer) int {
	flags := flag.NewFlagSet("regexcheck", flag.ContinueOnError)
	manifestFile := flags.String("manifest", "", "pattern manifest to check")
	var include stringList
	flags.Var(&include, "include", "only scan files matching this glob (repeatable)")
	match := flags.String("match", "", "override how patterns are applied: full, partial or both")
	jobs := flags.Int("j", runtime.NumCPU(), "number of files scanned concurrently")
	pattern := flags.String("re", "", "check a single pattern")
	dialectName := flags.String("dialect", "java", "dialect of -re: java, php, python or plain")
	optionLetters := flags.String("flags", "", "inline flag letters for -re")
	dotFile := flags.String("dot", "", "with -re, write the automaton in Graphviz DOT to this file (- for stdout)")
	if err := flags.Parse(args); err != nil {
		return exitError
	}

	var override *finders.MatchType
	if *match != "" {
		m, err := finders.ParseMatchType(*match)
		if err != nil {
			log.Print(err)
			return exitError
		}
		override = &m
	}

	if *pattern != "" {
		return checkPattern(stdout, *pattern, *dialectName, *optionLetters, *dotFile, override)
	}

	if *manifestFile == "" && flags.NArg() == 0 {
		fmt.Fprintln(flags.Output(), "usage: regexcheck [-manifest file] [-include glob] [-match full|partial|both] [-j n] [paths...]")
		flags.PrintDefaults()
		return exitError
	}

	status := exitClean
	if *manifestFile != "" {
		targets, err := manifestTargets(*manifestFile)
		if err != nil {
			log.Print(err)
			return exitError
		}
		findings, broken := checkTargets(targets, override)
		status = max(status, report(stdout, findings))
		if broken > 0 {
			status = exitError
		}
	}
	if flags.NArg() > 0 {
		status = max(status, scanPaths(stdout, flags.Args(), include, *jobs, override))
	}
	return status
}

func checkPattern(stdout io.Writer, pattern, dialectName, letters, dotFile string, override *finders.MatchType) int {
	dialect, err := syntax.ParseDialect(dialectName)
	if err != nil {
		log.Print(err)
		return exitError
	}
	source := syntax.NewDialectSource(dialect, pattern)
	opts := syntax.ParseOptions(letters)
	if dialect == syntax.PHP {
		opts = syntax.PhpOptions(letters)
	}

	if dotFile != "" {
		if err := writeDot(stdout, dotFile, syntax.Parse(source, opts)); err != nil {
			log.Print(err)
			return exitError
		}
	}

	t := target{pos: "-re", source: source, options: opts, matchType: finders.Both}
	findings, broken := checkTargets([]target{t}, override)
	if broken > 0 {
		return exitError
	}
	return report(stdout, findings)
}

func writeDot(stdout io.Writer, name string, tree *syntax.RegexTree) error {
	if name == "-" {
		return syntax.WriteDot(stdout, tree)
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := syntax.WriteDot(f, tree); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func manifestTargets(name string) ([]target, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	patterns, err := manifest.Parse(name, f, finders.Full)
	if err != nil {
		return nil, err
	}
	targets := make([]target, len(patterns))
	for i, p := range patterns {
		targets[i] = target{pos: p.Pos.String(), source: p.Source, options: p.Options, matchType: p.MatchType}
	}
	return targets, nil
}

// scanPaths checks the files under paths using up to jobs goroutines. The
// output keeps the order in which files were found.
func scanPaths(stdout io.Writer, paths, include []string, jobs int, override *finders.MatchType) int {
	scanner, err := scan.New(include...)
	if err != nil {
		log.Print(err)
		return exitError
	}
	var files []string
	if err := scanner.Walk(paths, func(path string) error {
		files = append(files, path)
		return nil
	}); err != nil {
		log.Print(err)
		return exitError
	}

	results := make([][]finding, len(files))
	failed := make([]bool, len(files))
	work := make(chan int)
	var wg sync.WaitGroup
	for range max(jobs, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				literals, err := scanner.ScanFile(files[i])
				if err != nil {
					log.Print(err)
					failed[i] = true
					continue
				}
				targets := make([]target, len(literals))
				for j, l := range literals {
					pos := fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
					targets[j] = target{pos: pos, source: l.Source, options: l.Options, matchType: l.MatchType}
				}
				// literals that do not parse are logged but do not fail the run
				results[i], _ = checkTargets(targets, override)
			}
		}()
	}
	for i := range files {
		work <- i
	}
	close(work)
	wg.Wait()

	status := exitClean
	for i := range files {
		status = max(status, report(stdout, results[i]))
		if failed[i] {
			status = exitError
		}
	}
	return status
}

type finding struct {
	pos   string
	issue regexcheck.Issue
}

// checkTargets returns the issues found and the number of patterns that
// could not be parsed.
func checkTargets(targets []target, override *finders.MatchType) (out []finding, broken int) {
	for _, t := range targets {
		re, err := regexcheck.CompileSource(t.source, t.options)
		if err != nil {
			log.Printf("%s: %v", t.pos, err)
			broken++
			continue
		}
		matchType := t.matchType
		if override != nil {
			matchType = *override
		}
		for _, issue := range re.Check(matchType) {
			out = append(out, finding{pos: t.pos, issue: issue})
		}
	}
	return out, broken
}

func report(w io.Writer, findings []finding) int {
	for _, f := range findings {
		fmt.Fprintf(w, "%s: %s: %s (%q at %d)\n", f.pos, f.issue.Rule, f.issue.Message, f.issue.Text, f.issue.Range.Start)
		for _, loc := range f.issue.Secondaries {
			for _, el := range loc.Elements {
				fmt.Fprintf(w, "\t%s (%q at %d)\n", loc.Message, el.Text(), el.Range().Start)
			}
		}
	}
	if len(findings) > 0 {
		return exitIssues
	}
	return exitClean
}
