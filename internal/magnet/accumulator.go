package magnet

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/uri"
)

// Options 控制解码行为。
//
// StrictDecode：true 时非法的百分号序列导致 malformed_input；false 时原样保留。
type Options struct {
	StrictDecode bool
}

// DefaultOptions 供 Decode 使用。
var DefaultOptions = Options{StrictDecode: false}

type tagged struct {
	priority int
	value    string
}

// taggedGroup 是一个 kt 值切分后的 token 组（组内共享同一个 priority）。
type taggedGroup struct {
	priority int
	tokens   []string
}

type state int

const (
	stateOpen state = iota
	stateFailed
	stateAborted
	stateFinalized
)

// Accumulator 把有序的 key/value 对逐个折叠为一个 Magnet。
//
// 生命周期：
// - Fold：每个 pair 调用一次（从左到右）；第一次失败后进入 failed 状态，之后的 Fold/Finalize 都返回同一个错误
// - Finalize：输入结束信号，只能调用一次；执行排序/去重并产出 Magnet
// - Abort：放弃当前工作，不产出 Magnet；之后 Fold/Finalize 返回 ErrAborted
//
// Accumulator 不是并发安全的；每次解码各自持有一个。
type Accumulator struct {
	opts  Options
	state state
	err   error

	name     string
	length   *int64
	fallback string
	manifest string

	infoHash []tagged
	source   []tagged
	announce []tagged
	keywords []taggedGroup

	experimental map[string]string
}

func NewAccumulator(opts Options) *Accumulator {
	return &Accumulator{opts: opts}
}

// Fold 把一个 pair 并入工作状态。空值 pair 不改变任何状态（也不校验 key）。
func (a *Accumulator) Fold(p domain.Pair) error {
	switch a.state {
	case stateFailed:
		return a.err
	case stateAborted:
		return ErrAborted
	case stateFinalized:
		return ErrFinalized
	}

	if p.Value == "" {
		return nil
	}
	if err := a.apply(p); err != nil {
		a.fail(err)
		return err
	}
	return nil
}

func (a *Accumulator) apply(p domain.Pair) error {
	shape, err := classify(p.Key)
	if err != nil {
		return err
	}

	switch shape.field {
	case fieldFallback:
		v, err := a.unescape(p)
		if err != nil {
			return err
		}
		a.fallback = v
	case fieldName:
		a.name = p.Value
	case fieldManifest:
		a.manifest = p.Value
	case fieldLength:
		n, err := strconv.ParseInt(p.Value, 10, 64)
		if err != nil {
			return &Error{Code: ErrCodeInvalidLength, Key: p.Key, Value: p.Value, Err: err}
		}
		a.length = &n
	case fieldKeywords:
		a.keywords = append(a.keywords, taggedGroup{priority: shape.priority, tokens: splitKeywords(p.Value)})
	case fieldAnnounce:
		v, err := a.unescape(p)
		if err != nil {
			return err
		}
		a.announce = append(a.announce, tagged{priority: shape.priority, value: v})
	case fieldSource:
		v, err := a.unescape(p)
		if err != nil {
			return err
		}
		a.source = append(a.source, tagged{priority: shape.priority, value: v})
	case fieldInfoHash:
		a.infoHash = append(a.infoHash, tagged{priority: shape.priority, value: p.Value})
	case fieldExperimental:
		v, err := a.unescape(p)
		if err != nil {
			return err
		}
		if a.experimental == nil {
			a.experimental = make(map[string]string)
		}
		a.experimental[shape.name] = v
	}
	return nil
}

func (a *Accumulator) unescape(p domain.Pair) (string, error) {
	v, err := uri.Unescape(p.Value, a.opts.StrictDecode)
	if err != nil {
		return "", &Error{Code: ErrCodeMalformedInput, Key: p.Key, Value: p.Value, Err: err}
	}
	return v, nil
}

// Finalize 是输入结束信号：对列表字段做稳定排序 + 相邻去重，并产出 Magnet。
func (a *Accumulator) Finalize() (domain.Magnet, error) {
	switch a.state {
	case stateFailed:
		return domain.Magnet{}, a.err
	case stateAborted:
		return domain.Magnet{}, ErrAborted
	case stateFinalized:
		return domain.Magnet{}, ErrFinalized
	}
	a.state = stateFinalized

	m := domain.Magnet{
		Name:         a.name,
		Length:       a.length,
		Fallback:     a.fallback,
		Manifest:     a.manifest,
		InfoHash:     finalizeTagged(a.infoHash),
		Source:       finalizeTagged(a.source),
		Announce:     finalizeTagged(a.announce),
		Keywords:     finalizeGroups(a.keywords),
		Experimental: a.experimental,
	}
	a.release()
	return m, nil
}

// Abort 放弃当前工作；不会产出 Magnet。对已结束（finalized/failed）的 Accumulator 无影响。
func (a *Accumulator) Abort() {
	if a.state != stateOpen {
		return
	}
	a.state = stateAborted
	a.release()
}

func (a *Accumulator) fail(err error) {
	a.state = stateFailed
	a.err = err
	a.release()
}

// release 丢弃工作状态，保证失败/放弃后不会有半成品泄漏。
func (a *Accumulator) release() {
	a.name, a.fallback, a.manifest = "", "", ""
	a.length = nil
	a.infoHash, a.source, a.announce, a.keywords = nil, nil, nil, nil
	a.experimental = nil
}

// splitKeywords 按 '+' 切分 kt 的值；空 token（"a++b"）丢弃。
func splitKeywords(v string) []string {
	parts := strings.Split(v, "+")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func finalizeTagged(in []tagged) []string {
	if len(in) == 0 {
		return nil
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].priority < in[j].priority })
	out := make([]string, 0, len(in))
	for _, t := range in {
		out = appendUnlessRepeat(out, t.value)
	}
	return out
}

func finalizeGroups(in []taggedGroup) []string {
	if len(in) == 0 {
		return nil
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].priority < in[j].priority })
	var out []string
	for _, g := range in {
		for _, tok := range g.tokens {
			out = appendUnlessRepeat(out, tok)
		}
	}
	return out
}

// appendUnlessRepeat 只折叠相邻重复项；被其他值隔开的重复项会保留。
func appendUnlessRepeat(out []string, v string) []string {
	if n := len(out); n > 0 && out[n-1] == v {
		return out
	}
	return append(out, v)
}
