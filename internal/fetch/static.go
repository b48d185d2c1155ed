package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	maxBodySize = 50 << 20

	ctxBody        = "body"
	ctxContentType = "content_type"
	ctxStatus      = "status"
)

func newCollector(userAgent string, timeout time.Duration) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodySize),
	)
	c.SetRequestTimeout(timeout)

	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxBody, r.Body)
		r.Ctx.Put(ctxContentType, r.Headers.Get("Content-Type"))
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil && r.Ctx != nil {
			r.Ctx.Put(ctxStatus, r.StatusCode)
		}
	})
	return c
}

// get runs one synchronous request on col. The response lands in a
// per-request colly context.
func (c *Client) get(ctx context.Context, col *colly.Collector, rawURL string) (Binary, error) {
	if err := ctx.Err(); err != nil {
		return Binary{}, err
	}
	hdr := http.Header{}
	for key, value := range c.opts.Headers {
		hdr.Set(key, value)
	}

	reqCtx := colly.NewContext()
	if err := col.Request(http.MethodGet, rawURL, nil, reqCtx, hdr); err != nil {
		if status, ok := reqCtx.GetAny(ctxStatus).(int); ok && status >= 300 {
			return Binary{}, fmt.Errorf("%w %d", ErrStatus, status)
		}
		return Binary{}, err
	}
	body, _ := reqCtx.GetAny(ctxBody).([]byte)
	contentType, _ := reqCtx.GetAny(ctxContentType).(string)
	return Binary{Data: body, ContentType: contentType}, nil
}
