package main

import (
	"fmt"
	"io"
)

// Command names.
const (
	cmdExport     = "export"
	cmdShare      = "share"
	cmdPreview    = "preview"
	cmdImport     = "import"
	cmdAdd        = "add"
	cmdRemove     = "remove"
	cmdMove       = "move"
	cmdReorder    = "reorder"
	cmdCategories = "categories"
	cmdList       = "list"
	cmdMigrate    = "migrate"
	cmdImage      = "image"
	cmdProfile    = "profile"
	cmdClear      = "clear"
	cmdDoctor     = "doctor"
	cmdCompletion = "completion"
	cmdVersion    = "version"
	cmdHelp       = "help"
)

// commandSummaries is the command list in usage order.
var commandSummaries = []struct{ name, desc string }{
	{cmdExport, "Export the catalog to PDF"},
	{cmdShare, "Export the catalog and share the PDF"},
	{cmdPreview, "Write the catalog page as HTML"},
	{cmdImport, "Import products from a JSON file"},
	{cmdAdd, "Add a product"},
	{cmdRemove, "Remove a product and its image"},
	{cmdMove, "Move a product onto another's position"},
	{cmdReorder, "Set the product order"},
	{cmdCategories, "List categories"},
	{cmdList, "List products"},
	{cmdMigrate, "Move inline images to the blob store"},
	{cmdImage, "Compress and attach a product image"},
	{cmdProfile, "Show or update the store profile"},
	{cmdClear, "Delete every product"},
	{cmdDoctor, "Check system configuration"},
	{cmdCompletion, "Generate shell completion script"},
	{cmdVersion, "Show version information"},
	{cmdHelp, "Show help for a command"},
}

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: catalog2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commandSummaries {
		fmt.Fprintf(w, "  %-11s%s\n", c.name, c.desc)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'catalog2pdf help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Common:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs and timing")
	fmt.Fprintln(w, "      --log-level <s>       trace, debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      console, json")
}

func printPageUsage(w io.Writer) {
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: a4, letter, legal")
	fmt.Fprintln(w, "      --margin <f>          Margin in mm (0-50)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Capture:")
	fmt.Fprintln(w, "      --width <n>           Capture width in CSS px (default 794)")
	fmt.Fprintln(w, "      --scale <f>           Supersampling factor (default 2)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Export timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom template/style directory")
}

// printExportUsage prints usage for the export command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: catalog2pdf export [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export the visible products to a paginated PDF with clickable links.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "  -n, --name <s>            File name base (default: store name)")
	fmt.Fprintln(w, "  -C, --category <s>        Export only this category")
	fmt.Fprintln(w, "      --each-category       Export one PDF per category")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel exports (0 = auto)")
	fmt.Fprintln(w)
	printPageUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printShareUsage prints usage for the share command.
func printShareUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: catalog2pdf share [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export the whole catalog and hand the PDF to share.command. Without")
	fmt.Fprintln(w, "one, a WhatsApp message is opened instead and the PDF is not attached.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "  -n, --name <s>            File name base (default: store name)")
	fmt.Fprintln(w)
	printPageUsage(w)
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printProfileUsage prints usage for the profile command.
func printProfileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: catalog2pdf profile [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Show the store profile, or update the fields given as flags.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fields:")
	fmt.Fprintln(w, "      --name <s>            Store name")
	fmt.Fprintln(w, "      --whatsapp <s>        WhatsApp number")
	fmt.Fprintln(w, "      --facebook <s>        Facebook page or URL")
	fmt.Fprintln(w, "      --instagram <s>       Instagram handle or URL")
	fmt.Fprintln(w, "      --color <s>           Brand color (#rrggbb)")
	fmt.Fprintln(w, "      --template <s>        minimalist, classic, modern")
	fmt.Fprintln(w, "      --show-quantity       Show stock quantities in the PDF")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printAddUsage prints usage for the add command.
func printAddUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: catalog2pdf add --name <s> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add a product at the front of the catalog.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fields:")
	fmt.Fprintln(w, "      --id <s>              Product id (default: random UUID)")
	fmt.Fprintln(w, "      --name <s>            Product name")
	fmt.Fprintln(w, "      --price <s>           Price, e.g. 25000")
	fmt.Fprintln(w, "      --description <s>     Description text or HTML")
	fmt.Fprintln(w, "      --category <s>        Category label")
	fmt.Fprintln(w, "      --image-url <url>     Remote image URL")
	fmt.Fprintln(w, "      --quantity <n>        Stock quantity")
	fmt.Fprintln(w, "      --featured            Mark as featured")
	fmt.Fprintln(w, "      --hidden              Hide from preview and PDF")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// commandArgs documents the positional arguments of simple commands.
var commandArgs = map[string]string{
	cmdPreview:    "-o <file.html>",
	cmdImport:     "<file.json>",
	cmdRemove:     "<id>",
	cmdMove:       "<from-id> <to-id>",
	cmdReorder:    "<id>...",
	cmdCategories: "",
	cmdList:       "",
	cmdMigrate:    "",
	cmdImage:      "<id> <image-file>",
	cmdClear:      "--yes",
	cmdDoctor:     "[--json]",
	cmdCompletion: "<shell>",
	cmdVersion:    "",
	cmdHelp:       "[command]",
}

// printCommandUsage prints usage for a command without flags of its own.
func printCommandUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: catalog2pdf %s %s\n", name, commandArgs[name])
	fmt.Fprintln(w)
	for _, c := range commandSummaries {
		if c.name == name {
			fmt.Fprintln(w, c.desc+".")
		}
	}
	if name == cmdDoctor || name == cmdVersion || name == cmdHelp || name == cmdCompletion {
		return
	}
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) error {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return nil
	}

	switch args[0] {
	case cmdExport:
		printExportUsage(env.Stdout)
	case cmdShare:
		printShareUsage(env.Stdout)
	case cmdProfile:
		printProfileUsage(env.Stdout)
	case cmdAdd:
		printAddUsage(env.Stdout)
	case cmdCompletion:
		printCompletionUsage(env.Stdout)
	default:
		if _, ok := commandArgs[args[0]]; !ok {
			printUsage(env.Stderr)
			return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
		}
		printCommandUsage(env.Stdout, args[0])
	}
	return nil
}
