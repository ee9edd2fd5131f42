package uri

// Options 控制 Split 的行为。
//
// Separators：切分 pair 的字符，默认只有 '&'（magnet 链接不使用 ';'）。
type Options struct {
	Separators []rune
}

// DefaultOptions 供 Split 使用。
var DefaultOptions = Options{
	Separators: []rune{'&'},
}
