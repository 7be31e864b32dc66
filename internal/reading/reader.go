package reading

import "image"

// Reader interprets invoice documents: it tries the machine-readable QR
// payload first and falls back to free-text pattern extraction. One call
// processes one document start to finish; Reader holds no per-document
// state, so a single instance is safe for concurrent use.
type Reader struct {
	classify func(string) Issuer
}

// NewReader creates a Reader with the default issuer classifier
func NewReader() *Reader {
	return &Reader{classify: classifyIssuer}
}

// strategy attempts one extraction approach against a document. A nil
// result with a nil error means "nothing found here, try the next one".
type strategy func(src documentSource) (*Result, error)

// strategies returns the ordered extraction chain. The orchestrator takes
// the first non-nil result; appending a new strategy (say, a different
// barcode symbology) requires no change to Read.
func (r *Reader) strategies() []strategy {
	return []strategy{
		decodeEmbeddedImages,
		decodeRenderedPages,
		r.extractFromText,
	}
}

// Read interprets one PDF invoice and returns the issuer identity and
// normalized payment record. Only structural document failures return an
// error; pattern and field misses degrade to absent fields.
func (r *Reader) Read(data []byte) (*Result, error) {
	src, err := openPDF(data)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return r.read(src)
}

func (r *Reader) read(src documentSource) (*Result, error) {
	for _, s := range r.strategies() {
		res, err := s(src)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	// Unreachable: extractFromText always produces a result
	return &Result{Issuer: IssuerFallback}, nil
}

// ReadImage interprets a photographed invoice. Photos carry no stable
// text layout, so only the QR pipeline applies; a photo without a
// decodable payload fails with ErrNoQRPayload.
func (r *Reader) ReadImage(data []byte, contentType string) (*Result, error) {
	img, err := decodeImage(data, contentType)
	if err != nil {
		return nil, err
	}

	if res := firstPayloadResult(decodeQRImages([]image.Image{img})); res != nil {
		return res, nil
	}
	return nil, ErrNoQRPayload
}

// decodeEmbeddedImages decodes QR payloads from images embedded in the
// document, the cheapest and most reliable source.
func decodeEmbeddedImages(src documentSource) (*Result, error) {
	images, err := src.EmbeddedImages()
	if err != nil {
		return nil, err
	}
	return firstPayloadResult(decodeQRImages(images)), nil
}

// decodeRenderedPages rasterizes every page and decodes QR payloads from
// the renderings, recovering codes printed as vector content. Run only
// when the embedded images yielded nothing, since full-page rendering is
// substantially more expensive.
func decodeRenderedPages(src documentSource) (*Result, error) {
	images, err := src.RenderedPages()
	if err != nil {
		return nil, err
	}
	return firstPayloadResult(decodeQRImages(images)), nil
}

// extractFromText classifies the issuer from the document text and
// applies that issuer's rule table. Always produces a result; a record
// with absent fields is a legitimate outcome for the caller to flag.
func (r *Reader) extractFromText(src documentSource) (*Result, error) {
	text, err := src.Text()
	if err != nil {
		return nil, err
	}

	issuer := r.classify(text)
	return &Result{
		Issuer: issuer,
		Record: extractRecord(ruleSets[issuer], text),
	}, nil
}

// firstPayloadResult converts the first decoded payload into a result.
// Documents are assumed to carry at most one relevant payment QR, so the
// first payload is authoritative.
func firstPayloadResult(payloads []*qrPayload) *Result {
	if len(payloads) == 0 {
		return nil
	}
	return &Result{
		Issuer: IssuerQR,
		Record: payloadRecord(payloads[0]),
	}
}
