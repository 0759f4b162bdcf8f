package analyze

import "bytes"

// progressReader reports the percentage of the document consumed by
// the transport. Reported values only ever increase and top out at
// 100, regardless of read sizes.
type progressReader struct {
	r      *bytes.Reader
	total  int64
	sent   int64
	last   int
	notify func(int)
}

func newProgressReader(data []byte, notify func(int)) *progressReader {
	return &progressReader{
		r:      bytes.NewReader(data),
		total:  int64(len(data)),
		notify: notify,
	}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.sent += int64(n)

	if p.notify != nil && p.total > 0 {
		percent := int(p.sent * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent > p.last {
			p.last = percent
			p.notify(percent)
		}
	}
	return n, err
}
