// Package catalog2pdf exports a merchant product catalog as a paginated PDF
// using headless Chrome.
//
// # Quick Start
//
// Create an exporter, export a catalog, and close when done:
//
//	exp, err := catalog2pdf.NewExporter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	result, err := exp.Export(ctx, catalog2pdf.Input{
//	    Info:     catalog2pdf.StoreInfo{Name: "Mi Tienda", WhatsApp: "+57 300 123 4567"},
//	    Products: products,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.FileName, result.PDF, 0644)
//
// # Export Pipeline
//
// An export walks through a fixed sequence of states:
//
//  1. Preparing: the catalog is rendered, loaded as a live page, and its
//     capture root is cloned off-screen at the reference width.
//  2. ImagesResolving: blob-backed images are minted into temporary URLs,
//     every image is awaited, and failed remote images are fetched once.
//  3. CapturingBitmap: card and link boxes are measured, fonts are awaited,
//     and the clone is rasterized at 2x.
//  4. Paginating: the bitmap is cut at card boundaries into page slices.
//  5. LinkProjecting: link boxes are clipped onto the pages they touch.
//  6. Finalizing: the slices and links are composed into the PDF.
//
// Temporary URLs, the off-screen clone, and the page are released when
// Export returns, whether it succeeded or not.
//
// # Configuration
//
// Use functional options to customize the exporter:
//
//	exp, err := catalog2pdf.NewExporter(
//	    catalog2pdf.WithTimeout(2 * time.Minute),
//	    catalog2pdf.WithBlobStore(blobs),
//	    catalog2pdf.WithLogger(logger),
//	)
//
// Per-export options are passed via Input:
//
//	result, err := exp.Export(ctx, catalog2pdf.Input{
//	    Info:     info,
//	    Products: products,
//	    Category: "Zapatos",
//	    BaseName: "Mi Tienda",
//	    Page:     &catalog2pdf.PageSettings{Size: "letter", Margin: 12},
//	})
//
// # Parallel Processing
//
// For one PDF per category, use ExporterPool to manage browser instances:
//
//	pool := catalog2pdf.NewExporterPool(4, catalog2pdf.WithBlobStore(blobs))
//	defer pool.Close()
//
//	exp, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(exp)
//
// # User Actions
//
// Controller wraps an exporter with the download and share actions of the
// catalog UI. It rejects overlapping actions and reports failures with a
// generic message; the cause stays reachable through errors.Unwrap.
package catalog2pdf
