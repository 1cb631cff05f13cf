package hd

import "h2hd/frame"

// Side selects which of the two static seed tables a context starts from.
// A deflater uses its own side directly; an inflater is seeded with the
// *peer's* table, i.e. side^1, matching nghttp2_hd_inflate_init's XOR
// against nghttp2_hd_deflate_init.
type Side int

const (
	SideClient Side = iota
	SideServer
)

func nvPairs(pairs ...string) []frame.NV {
	out := make([]frame.NV, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, frame.NV{Name: []byte(pairs[i]), Value: []byte(pairs[i+1])})
	}
	return out
}

// reqTable and resTable are the two static initial tables seeding a fresh
// context: requests seed with reqTable, responses with resTable,
// ported verbatim from nghttp2's reqhd_table/reshd_table.
func reqTable() []frame.NV {
	return nvPairs(
		":scheme", "http",
		":scheme", "https",
		":host", "",
		":path", "/",
		":method", "GET",
		"accept", "",
		"accept-charset", "",
		"accept-encoding", "",
		"accept-language", "",
		"cookie", "",
		"if-modified-since", "",
		"keep-alive", "",
		"user-agent", "",
		"proxy-connection", "",
		"referer", "",
		"accept-datetime", "",
		"authorization", "",
		"allow", "",
		"cache-control", "",
		"connection", "",
		"content-length", "",
		"content-md5", "",
		"content-type", "",
		"date", "",
		"expect", "",
		"from", "",
		"if-match", "",
		"if-none-match", "",
		"if-range", "",
		"if-unmodified-since", "",
		"max-forwards", "",
		"pragma", "",
		"proxy-authorization", "",
		"range", "",
		"te", "",
		"upgrade", "",
		"via", "",
		"warning", "",
	)
}

func resTable() []frame.NV {
	return nvPairs(
		":status", "200",
		"age", "",
		"cache-control", "",
		"content-length", "",
		"content-type", "",
		"date", "",
		"etag", "",
		"expires", "",
		"last-modified", "",
		"server", "",
		"set-cookie", "",
		"vary", "",
		"via", "",
		"access-control-allow-origin", "",
		"accept-ranges", "",
		"allow", "",
		"connection", "",
		"content-disposition", "",
		"content-encoding", "",
		"content-language", "",
		"content-location", "",
		"content-md5", "",
		"content-range", "",
		"link", "",
		"location", "",
		"p3p", "",
		"pragma", "",
		"proxy-authenticate", "",
		"refresh", "",
		"retry-after", "",
		"strict-transport-security", "",
		"trailer", "",
		"transfer-encoding", "",
		"warning", "",
		"www-authenticate", "",
	)
}

func seedFor(side Side) []frame.NV {
	if side == SideClient {
		return reqTable()
	}
	return resTable()
}
