package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

func smells(m dsl.Matcher) {
	// Two guards in a row returning the same value can be merged with ||.
	//   if a { return err }
	//   if b { return err }
	m.Match(`if $c1 { return $ret }; if $c2 { return $ret }`).
		Report(`two consecutive guards return the same value; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { return $ret }`)

	// Same shape with continue, inside loops.
	m.Match(`if $c1 { continue }; if $c2 { continue }`).
		Report(`two consecutive continues; consider merging conditions with ||`).
		Suggest(`if $c1 || $c2 { continue }`)

	// Not always wrong, but usually worth extracting.
	m.Match(`for $*_ { for $*_ { $*_ } }`).
		Report(`nested for-loop; consider extracting inner loop logic or reducing algorithmic complexity`)
}

func logging(m dsl.Matcher) {
	// Process output goes through slog; the CLI writes to its injected io.Writer.
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `fmt.Print($*_)`).
		Where(!m.File().PkgPath.Matches(`/cmd/`)).
		Report(`use the component's *slog.Logger instead of printing to stdout`)

	m.Match(`log.Printf($*_)`, `log.Println($*_)`, `log.Fatal($*_)`, `log.Fatalf($*_)`).
		Report(`use log/slog; the stdlib log package bypasses the configured handler`)
}

func httpClients(m dsl.Matcher) {
	// Every outbound call must carry a timeout.
	m.Match(`http.DefaultClient`, `http.Get($*_)`, `http.Post($*_)`).
		Report(`use an *http.Client with a Timeout instead of the default client`)
}
