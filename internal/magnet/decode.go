package magnet

import (
	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/uri"
)

// Decode 使用 DefaultOptions 把有序 key/value 对解码为 Magnet。
func Decode(pairs []domain.Pair) (domain.Magnet, error) {
	return DecodeWithOptions(pairs, DefaultOptions)
}

// DecodeWithOptions 依次 Fold 每个 pair，然后 Finalize。
// 第一次失败即返回（原子失败：不会返回半成品）。
func DecodeWithOptions(pairs []domain.Pair, opts Options) (domain.Magnet, error) {
	acc := NewAccumulator(opts)
	for _, p := range pairs {
		if err := acc.Fold(p); err != nil {
			return domain.Magnet{}, err
		}
	}
	return acc.Finalize()
}

// DecodeString 切分原始 URI 并解码；切分失败包装为 malformed_input。
func DecodeString(raw string) (domain.Magnet, error) {
	return DecodeStringWithOptions(raw, DefaultOptions)
}

func DecodeStringWithOptions(raw string, opts Options) (domain.Magnet, error) {
	pairs, err := uri.Split(raw)
	if err != nil {
		return domain.Magnet{}, &Error{Code: ErrCodeMalformedInput, Err: err}
	}
	return DecodeWithOptions(pairs, opts)
}
