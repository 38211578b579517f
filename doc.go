// Package presignx provides a provider-neutral contract for generating
// time-limited signed URLs against cloud object stores (AWS S3, Google Cloud
// Storage, Azure Blob Storage and S3-compatible services such as DigitalOcean
// Spaces).
//
// The package is the leaf of the module: it holds the request/response model,
// configuration loading and validation, the unique key generator and the
// normalization rules every adapter shares. Concrete adapters live under
// adapters/ and the facade that ties everything together lives in presigner:
//
//	import "github.com/gostratum/presignx/presigner"
//
//	resp, err := presigner.GeneratePresignedURL(ctx, presignx.Request{
//	    Key:         "avatar.png",
//	    Prefix:      "uploads",
//	    Method:      presignx.MethodPut,
//	    ContentType: presignx.String("image/png"),
//	}, nil)
//
// Adapters never retry and never cache; each facade call reads configuration
// afresh and builds its own adapter.
package presignx
