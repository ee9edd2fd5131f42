package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gausby/magnet/internal/domain"
	"github.com/gausby/magnet/internal/magnet"
)

// decodeCmd 逐条解码 uri，成功的记录以一行 JSON 写到 stdout。
// 任一条失败都会在 stderr 输出 "<uri> <error_code>: <msg>"，并以 1 退出（其余条目照常输出）。
func decodeCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts := magnet.DefaultOptions
	var uris []string
	for _, a := range args {
		switch {
		case isHelp(a):
			printUsage(stdout)
			return 0
		case a == "--strict" || strings.HasPrefix(a, "--strict="):
			v, err := parseBoolFlag("--strict", a)
			if err != nil {
				fmt.Fprintf(stderr, "参数错误：%v\n", err)
				return 2
			}
			opts.StrictDecode = v
		case strings.HasPrefix(a, "-"):
			fmt.Fprintf(stderr, "参数错误：未知参数 %q\n", a)
			return 2
		default:
			uris = append(uris, a)
		}
	}

	if len(uris) == 0 {
		sc := bufio.NewScanner(stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				uris = append(uris, line)
			}
		}
		if err := sc.Err(); err != nil {
			fmt.Fprintf(stderr, "读取 stdin 失败：%v\n", err)
			return 1
		}
	}

	enc := json.NewEncoder(stdout)
	failed := 0
	for _, u := range uris {
		m, err := magnet.DecodeStringWithOptions(u, opts)
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "%s %s: %v\n", u, magnet.Code(err), err)
			continue
		}
		if err := enc.Encode(m); err != nil {
			fmt.Fprintf(stderr, "输出失败：%v\n", err)
			return 1
		}
	}
	if failed > 0 {
		return 1
	}
	return 0
}

// encodeCmd 读取一个 JSON 记录（file 或 stdin），输出对应的 magnet 链接。
func encodeCmd(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var file string
	for _, a := range args {
		switch {
		case isHelp(a):
			printUsage(stdout)
			return 0
		case strings.HasPrefix(a, "-") && a != "-":
			fmt.Fprintf(stderr, "参数错误：未知参数 %q\n", a)
			return 2
		default:
			if file != "" {
				fmt.Fprintf(stderr, "参数错误：重复的 file：%q 与 %q\n", file, a)
				return 2
			}
			file = a
		}
	}

	r := stdin
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			fmt.Fprintf(stderr, "读取 %q 失败：%v\n", file, err)
			return 1
		}
		defer f.Close()
		r = f
	}

	var m domain.Magnet
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		fmt.Fprintf(stderr, "解析 JSON 记录失败：%v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, magnet.EncodeString(m))
	for _, f := range magnet.LossyFields(m) {
		fmt.Fprintf(stderr, "警告：%s 含有无法编码的字符（'&' 或 '='），解码时会被截断\n", f)
	}
	return 0
}
