package asm

import (
	"strings"

	"gomacro10/pkg/fetch"
)

// AssembleURLs fetches each source in a semicolon-separated URL list, in
// order, then assembles the joined result. Fetches are issued one at a
// time; a failed fetch aborts before any assembly happens.
func (a *Assembler) AssembleURLs(loader fetch.Loader, urls string) error {
	var sources []string
	for _, u := range strings.Split(urls, ";") {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		raw, err := loader.Load(u)
		if err != nil {
			a.host.Println(err.Error())
			return err
		}
		sources = append(sources, fetch.ExtractText(raw, a.host.Println))
	}
	return a.Assemble(sources...)
}
