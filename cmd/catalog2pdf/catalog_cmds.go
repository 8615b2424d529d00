package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/alnah/go-catalog2pdf/internal/catalog"
	"github.com/alnah/go-catalog2pdf/internal/imaging"
)

// maxImportBytes bounds import documents read from disk.
const maxImportBytes = 16 << 20

// openSimple parses common flags, checks the positional argument count
// and opens the app.
func openSimple(ctx context.Context, name string, args []string, env *Environment, nargs func(int) bool) (*app, *simpleFlags, []string, error) {
	f, rest, err := parseSimpleFlags(name, args, env.Stderr)
	if err != nil {
		return nil, nil, nil, usageError(err)
	}
	if !nargs(len(rest)) {
		return nil, nil, nil, fmt.Errorf("%w: catalog2pdf %s %s", ErrUsage, name, commandArgs[name])
	}
	a, err := openApp(ctx, env, &f.common)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, f, rest, nil
}

func exactly(n int) func(int) bool { return func(got int) bool { return got == n } }

func atLeast(n int) func(int) bool { return func(got int) bool { return got >= n } }

// storeErr tags store failures that are not about the catalog contents.
func storeErr(op string, err error) error {
	if errors.Is(err, catalog.ErrUnknownProduct) || errors.Is(err, catalog.ErrDuplicateID) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// runImport appends the products of a JSON document to the catalog.
func runImport(ctx context.Context, args []string, env *Environment) error {
	a, f, rest, err := openSimple(ctx, cmdImport, args, env, exactly(1))
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := readLimited(rest[0], maxImportBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	cat, err := a.store.Load(ctx)
	if err != nil {
		return storeErr("loading catalog", err)
	}
	imported, err := catalog.ParseImport(data, catalog.ImportOptions{BaseOrder: len(cat.Products)})
	if err != nil {
		return err
	}
	if len(imported) == 0 {
		return fmt.Errorf("%w: no products with a name in %s", catalog.ErrInvalidImport, rest[0])
	}
	if _, err := a.store.SaveProducts(ctx, append(cat.Products, imported...)); err != nil {
		return storeErr("saving products", err)
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Imported %d product(s)\n", len(imported))
	}
	return nil
}

// readLimited reads a file, refusing anything larger than limit.
func readLimited(path string, limit int64) ([]byte, error) {
	file, err := os.Open(path) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, limit)
	}
	return data, nil
}

// runAdd creates one product at the top of the list.
func runAdd(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseProductFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, rest[0])
	}
	p, err := productFromFlags(f)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, env, &f.common)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.store.AddProducts(ctx, p); err != nil {
		return storeErr("adding product", err)
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Added %s (%s)\n", p.Name, p.ID)
	}
	return nil
}

// productFromFlags validates the add flags into a product.
func productFromFlags(f *productFlags) (catalog.Product, error) {
	name := strings.TrimSpace(f.name)
	if name == "" {
		return catalog.Product{}, fmt.Errorf("%w: --name is required", ErrUsage)
	}
	var price float64
	if f.price != "" {
		var err error
		price, err = catalog.ParsePrice(f.price)
		if err != nil {
			return catalog.Product{}, fmt.Errorf("%w: invalid price %q: %v", ErrUsage, f.price, err)
		}
	}
	id := strings.TrimSpace(f.id)
	if id == "" {
		id = uuid.NewString()
	}

	p := catalog.Product{
		ID:          id,
		Name:        name,
		Price:       price,
		Description: f.description,
		Category:    strings.TrimSpace(f.category),
		Image:       strings.TrimSpace(f.image),
		Featured:    f.featured,
		Hidden:      f.hidden,
	}
	if f.set["quantity"] {
		if f.quantity < 0 {
			return catalog.Product{}, fmt.Errorf("%w: quantity must be >= 0", ErrUsage)
		}
		p.Quantity = catalog.IntPtr(f.quantity)
	}
	return p, nil
}

// runRemove deletes one product and its stored image.
func runRemove(ctx context.Context, args []string, env *Environment) error {
	a, f, rest, err := openSimple(ctx, cmdRemove, args, env, exactly(1))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.RemoveProduct(ctx, rest[0]); err != nil {
		return storeErr("removing product", err)
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Removed %s\n", rest[0])
	}
	return nil
}

// runMove drops one product onto another's position.
func runMove(ctx context.Context, args []string, env *Environment) error {
	a, f, rest, err := openSimple(ctx, cmdMove, args, env, exactly(2))
	if err != nil {
		return err
	}
	defer a.Close()

	products, err := a.store.Move(ctx, rest[0], rest[1])
	if err != nil {
		return storeErr("moving product", err)
	}
	if !f.common.quiet {
		printProducts(env.Stdout, products)
	}
	return nil
}

// runReorder ranks the given products in sequence.
func runReorder(ctx context.Context, args []string, env *Environment) error {
	a, f, rest, err := openSimple(ctx, cmdReorder, args, env, atLeast(1))
	if err != nil {
		return err
	}
	defer a.Close()

	products, err := a.store.Reorder(ctx, rest)
	if err != nil {
		return storeErr("reordering products", err)
	}
	if !f.common.quiet {
		printProducts(env.Stdout, products)
	}
	return nil
}

// runCategories prints each category with its product count.
func runCategories(ctx context.Context, args []string, env *Environment) error {
	a, _, _, err := openSimple(ctx, cmdCategories, args, env, exactly(0))
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.store.Load(ctx)
	if err != nil {
		return storeErr("loading catalog", err)
	}
	for _, g := range catalog.GroupByCategory(cat.Products) {
		fmt.Fprintf(env.Stdout, "%s (%d)\n", g.Label, len(g.Products))
	}
	return nil
}

// runList prints the products in display order.
func runList(ctx context.Context, args []string, env *Environment) error {
	a, _, _, err := openSimple(ctx, cmdList, args, env, exactly(0))
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.store.Load(ctx)
	if err != nil {
		return storeErr("loading catalog", err)
	}
	printProducts(env.Stdout, cat.Products)
	return nil
}

// printProducts writes one aligned line per product, in display order.
func printProducts(w io.Writer, products []catalog.Product) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, p := range catalog.SortByOrder(products) {
		var marks []string
		if p.Featured {
			marks = append(marks, "featured")
		}
		if p.Hidden {
			marks = append(marks, "hidden")
		}
		if p.Quantity != nil {
			marks = append(marks, fmt.Sprintf("stock %d", *p.Quantity))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, catalog.FormatCurrency(p.Price), catalog.NormalizeCategory(p), strings.Join(marks, ","))
	}
	_ = tw.Flush()
}

// runMigrate moves inline images into the blob store.
func runMigrate(ctx context.Context, args []string, env *Environment) error {
	a, f, _, err := openSimple(ctx, cmdMigrate, args, env, exactly(0))
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.store.Load(ctx)
	if err != nil {
		return storeErr("loading catalog", err)
	}
	migrated, n := a.store.Migrate(ctx, cat.Products)
	if n > 0 {
		if _, err := a.store.SaveProducts(ctx, migrated); err != nil {
			return storeErr("saving products", err)
		}
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Migrated %d image(s)\n", n)
	}
	return nil
}

// runImage compresses an image file and attaches it to a product.
func runImage(ctx context.Context, args []string, env *Environment) error {
	a, f, rest, err := openSimple(ctx, cmdImage, args, env, exactly(2))
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := os.Open(rest[1]) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	defer file.Close()

	data, err := imaging.Compress(file)
	if err != nil {
		return fmt.Errorf("compressing %s: %w", rest[1], err)
	}
	p, err := a.store.SetImage(ctx, rest[0], data, "image/jpeg")
	if err != nil {
		return storeErr("storing image", err)
	}
	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Stored %s (%d bytes) for %s\n", p.ImageID, len(data), p.ID)
	}
	return nil
}

// runProfile prints the store profile, or updates the given fields.
func runProfile(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseProfileFlags(args, env.Stderr)
	if err != nil {
		return usageError(err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, rest[0])
	}

	var template catalog.TemplateID
	if f.set["template"] {
		template, err = catalog.ParseTemplateID(f.template)
		if err != nil {
			return err
		}
	}

	a, err := openApp(ctx, env, &f.common)
	if err != nil {
		return err
	}
	defer a.Close()

	if !anyProfileFlag(f.set) {
		cat, err := a.store.Load(ctx)
		if err != nil {
			return storeErr("loading catalog", err)
		}
		printProfile(env.Stdout, cat.Info)
		return nil
	}

	info, err := a.store.UpdateInfo(ctx, func(info *catalog.StoreInfo) {
		if f.set["name"] {
			info.Name = strings.TrimSpace(f.name)
		}
		if f.set["whatsapp"] {
			info.WhatsApp = strings.TrimSpace(f.whatsapp)
		}
		if f.set["facebook"] {
			info.Facebook = catalog.CleanHandle(f.facebook)
		}
		if f.set["instagram"] {
			info.Instagram = catalog.CleanHandle(f.instagram)
		}
		if f.set["color"] {
			info.Color = strings.TrimSpace(f.color)
		}
		if f.set["template"] {
			info.TemplateID = template
		}
		if f.set["show-quantity"] {
			info.ShowQuantityInPDF = f.showQuantity
		}
	})
	if err != nil {
		return storeErr("saving profile", err)
	}
	if !f.common.quiet {
		printProfile(env.Stdout, info)
	}
	return nil
}

// anyProfileFlag reports whether a profile field flag was given.
func anyProfileFlag(set map[string]bool) bool {
	for _, name := range []string{"name", "whatsapp", "facebook", "instagram", "color", "template", "show-quantity"} {
		if set[name] {
			return true
		}
	}
	return false
}

func printProfile(w io.Writer, info catalog.StoreInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "name:\t%s\n", info.Name)
	fmt.Fprintf(tw, "whatsapp:\t%s\n", info.WhatsApp)
	fmt.Fprintf(tw, "facebook:\t%s\n", catalog.FacebookLabel(info.Facebook))
	fmt.Fprintf(tw, "instagram:\t%s\n", catalog.InstagramLabel(info.Instagram))
	fmt.Fprintf(tw, "color:\t%s\n", info.Color)
	fmt.Fprintf(tw, "template:\t%s\n", info.Variant())
	fmt.Fprintf(tw, "show quantity:\t%t\n", info.ShowQuantityInPDF)
	_ = tw.Flush()
}

// runClear deletes the profile and every product. Requires --yes.
func runClear(ctx context.Context, args []string, env *Environment) error {
	a, f, _, err := openSimple(ctx, cmdClear, args, env, exactly(0))
	if err != nil {
		return err
	}
	defer a.Close()

	if !f.yes {
		return fmt.Errorf("%w: clear deletes every product; pass --yes to confirm", ErrUsage)
	}
	if err := a.store.Clear(ctx); err != nil {
		return storeErr("clearing catalog", err)
	}
	if !f.common.quiet {
		fmt.Fprintln(env.Stdout, "Catalog cleared")
	}
	return nil
}
