package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logLevel  string
	logFormat string
}

// pageFlags holds page layout flags.
type pageFlags struct {
	size   string
	margin float64
}

// renderFlags tune the capture.
type renderFlags struct {
	width     int
	scale     float64
	timeout   string
	assetPath string
}

// exportFlags holds all flags for the export and share commands.
type exportFlags struct {
	common       commonFlags
	output       string
	name         string
	category     string
	eachCategory bool
	workers      int
	page         pageFlags
	render       renderFlags

	// set records the flags given on the command line.
	set map[string]bool
}

// profileFlags holds store profile fields.
type profileFlags struct {
	common       commonFlags
	name         string
	whatsapp     string
	facebook     string
	instagram    string
	color        string
	template     string
	showQuantity bool

	set map[string]bool
}

// productFlags holds the fields of a product created with add.
type productFlags struct {
	common      commonFlags
	id          string
	name        string
	price       string
	description string
	category    string
	image       string
	quantity    int
	featured    bool
	hidden      bool

	set map[string]bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs and timing")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: console, json")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a4, letter, legal")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in mm (0-50)")
}

// addRenderFlags adds capture tuning flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.IntVar(&f.width, "width", 0, "capture width in CSS px (default 794)")
	fs.Float64Var(&f.scale, "scale", 0, "bitmap supersampling factor (default 2)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "export timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom template/style directory")
}

// visited returns the names of the flags set on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// newFlagSet creates a FlagSet reporting errors and usage to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// buildExportFlagSet registers the export flags on a new FlagSet.
// Shared by parsing and completion.
func buildExportFlagSet(name string, w io.Writer, f *exportFlags) *flag.FlagSet {
	usage := printExportUsage
	if name == cmdShare {
		usage = printShareUsage
	}
	fs := newFlagSet(name, w, usage)

	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVarP(&f.name, "name", "n", "", "file name base (default: store name)")
	if name == cmdExport {
		fs.StringVarP(&f.category, "category", "C", "", "export only this category")
		fs.BoolVar(&f.eachCategory, "each-category", false, "export one PDF per category")
		fs.IntVarP(&f.workers, "workers", "w", 0, "parallel exports for --each-category (0 = auto)")
	}

	addCommonFlags(fs, &f.common)
	addPageFlags(fs, &f.page)
	addRenderFlags(fs, &f.render)
	return fs
}

// parseExportFlags parses export or share flags and returns positional args.
func parseExportFlags(name string, args []string, w io.Writer) (*exportFlags, []string, error) {
	f := &exportFlags{}
	fs := buildExportFlagSet(name, w, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = visited(fs)
	return f, fs.Args(), nil
}

// buildProfileFlagSet registers the profile flags on a new FlagSet.
func buildProfileFlagSet(w io.Writer, f *profileFlags) *flag.FlagSet {
	fs := newFlagSet(cmdProfile, w, printProfileUsage)
	fs.StringVar(&f.name, "name", "", "store name")
	fs.StringVar(&f.whatsapp, "whatsapp", "", "WhatsApp number")
	fs.StringVar(&f.facebook, "facebook", "", "Facebook page or URL")
	fs.StringVar(&f.instagram, "instagram", "", "Instagram handle or URL")
	fs.StringVar(&f.color, "color", "", "brand color (#rrggbb)")
	fs.StringVar(&f.template, "template", "", "template: minimalist, classic, modern")
	fs.BoolVar(&f.showQuantity, "show-quantity", false, "show stock quantities in the PDF")
	addCommonFlags(fs, &f.common)
	return fs
}

// parseProfileFlags parses profile flags.
func parseProfileFlags(args []string, w io.Writer) (*profileFlags, []string, error) {
	f := &profileFlags{}
	fs := buildProfileFlagSet(w, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = visited(fs)
	return f, fs.Args(), nil
}

// buildProductFlagSet registers the add flags on a new FlagSet.
func buildProductFlagSet(w io.Writer, f *productFlags) *flag.FlagSet {
	fs := newFlagSet(cmdAdd, w, printAddUsage)
	fs.StringVar(&f.id, "id", "", "product id (default: random UUID)")
	fs.StringVar(&f.name, "name", "", "product name (required)")
	fs.StringVar(&f.price, "price", "", "price, e.g. 25000 or \"$ 25.000\"")
	fs.StringVar(&f.description, "description", "", "description text or HTML")
	fs.StringVar(&f.category, "category", "", "category label")
	fs.StringVar(&f.image, "image-url", "", "remote image URL")
	fs.IntVar(&f.quantity, "quantity", 0, "stock quantity")
	fs.BoolVar(&f.featured, "featured", false, "mark as featured")
	fs.BoolVar(&f.hidden, "hidden", false, "hide from preview and PDF")
	addCommonFlags(fs, &f.common)
	return fs
}

// parseProductFlags parses add flags.
func parseProductFlags(args []string, w io.Writer) (*productFlags, []string, error) {
	f := &productFlags{}
	fs := buildProductFlagSet(w, f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	f.set = visited(fs)
	return f, fs.Args(), nil
}

// buildSimpleFlagSet registers only the common flags, plus --yes for
// destructive commands and --output for preview.
func buildSimpleFlagSet(name string, w io.Writer, f *commonFlags, yes *bool, output *string) *flag.FlagSet {
	fs := newFlagSet(name, w, func(w io.Writer) { printCommandUsage(w, name) })
	addCommonFlags(fs, f)
	if name == cmdClear {
		fs.BoolVarP(yes, "yes", "y", false, "confirm deleting every product")
	}
	if name == cmdPreview {
		fs.StringVarP(output, "output", "o", "", "output HTML file")
	}
	return fs
}

// simpleFlags holds the flags of commands without options of their own.
type simpleFlags struct {
	common commonFlags
	yes    bool
	output string
}

// parseSimpleFlags parses flags for commands that only take common flags.
func parseSimpleFlags(name string, args []string, w io.Writer) (*simpleFlags, []string, error) {
	f := &simpleFlags{}
	fs := buildSimpleFlagSet(name, w, &f.common, &f.yes, &f.output)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
