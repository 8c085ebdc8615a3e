// Package ctxlookup запрещает функции пакета net, выполняющие DNS-запрос без контекста.
// Верификация доменов обязана ограничивать запрос по времени, поэтому допустимы
// только методы net.Resolver с context.Context.
package ctxlookup

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// forbidden функции net и их замены.
var forbidden = map[string]string{
	"LookupTXT":   "(*net.Resolver).LookupTXT",
	"LookupHost":  "(*net.Resolver).LookupHost",
	"LookupIP":    "(*net.Resolver).LookupIP",
	"LookupCNAME": "(*net.Resolver).LookupCNAME",
	"LookupMX":    "(*net.Resolver).LookupMX",
	"LookupNS":    "(*net.Resolver).LookupNS",
}

var Analyzer = &analysis.Analyzer{
	Name:     "ctxlookup",
	Doc:      "запрещает DNS-запросы пакета net без context.Context",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
		if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "net" {
			return
		}
		// Методы net.Resolver принимают контекст.
		if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
			return
		}
		if repl, bad := forbidden[fn.Name()]; bad {
			pass.Reportf(call.Pos(), "net.%s без контекста, используйте %s", fn.Name(), repl)
		}
	})
	return nil, nil
}
