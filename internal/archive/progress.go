package archive

import "io"

// progressReader reports cumulative bytes handed to the HTTP transport.
// When the payload size is unknown the transport skips the wrapper entirely,
// so a reader never reports a bogus completion fraction.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report func(sent int64)
}

func newProgressReader(r io.Reader, total int64, report func(sent int64)) *progressReader {
	return &progressReader{r: r, total: total, report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent)
	}
	return n, err
}
