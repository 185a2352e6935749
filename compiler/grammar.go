package compiler

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var noirLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Int", Pattern: `0x[0-9a-fA-F]+|\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `==|!=|::|[-+*/(),:;{}=]`},
})

var parser = participle.MustBuild[File](
	participle.Lexer(noirLexer),
	participle.Elide("Comment", "Whitespace"),
)

type File struct {
	Uses      []*Use      `@@*`
	Functions []*Function `@@+`
}

type Use struct {
	Pos  lexer.Position
	Path []string `"use" @Ident ( "::" @Ident )* ";"`
}

type Function struct {
	Pos    lexer.Position
	Name   string       `"fn" @Ident`
	Params []*ParamDecl `"(" ( @@ ( "," @@ )* ","? )? ")"`
	Body   []*Statement `"{" @@* "}"`
}

type ParamDecl struct {
	Pos    lexer.Position
	Name   string `@Ident ":"`
	Public bool   `@"pub"?`
	Type   string `@Ident`
}

type Statement struct {
	Pos       lexer.Position
	Let       *LetStmt    `  @@`
	Constrain *Comparison `| "constrain" @@ ";"`
	Assert    *Comparison `| "assert" "(" @@ ")" ";"`
}

type LetStmt struct {
	Name  string `"let" @Ident`
	Type  string `( ":" @Ident )?`
	Value *Expr  `"=" @@ ";"`
}

type Comparison struct {
	Pos   lexer.Position
	Left  *Expr  `@@`
	Op    string `@( "==" | "!=" )`
	Right *Expr  `@@`
}

type Expr struct {
	Left *Term     `@@`
	Rest []*OpTerm `@@*`
}

type OpTerm struct {
	Op   string `@( "+" | "-" )`
	Term *Term  `@@`
}

type Term struct {
	Left *Factor     `@@`
	Rest []*OpFactor `@@*`
}

type OpFactor struct {
	Op     string  `@( "*" | "/" )`
	Factor *Factor `@@`
}

type Factor struct {
	Pos   lexer.Position
	Int   *string `  @Int`
	Ident *string `| @Ident`
	Sub   *Expr   `| "(" @@ ")"`
	Neg   *Factor `| "-" @@`
}
