// Package parser is a recursive-descent parser over internal/lexer's token
// stream, producing the internal/ast node set. Grounded on the teacher's
// hand-rolled internal/parser package (kanso-lang-kanso): a Parser struct
// walking a flat token slice with consume/check/match/synchronize helpers,
// and panic-free error recovery that inserts a placeholder node and keeps
// parsing so a single source file can report more than one syntax error.
package parser

import (
	"fmt"
	"strconv"

	"github.com/mgdickerson/cRust-sub000/internal/ast"
	"github.com/mgdickerson/cRust-sub000/internal/lexer"
	"github.com/mgdickerson/cRust-sub000/internal/token"
)

// SyntaxError is one recovered parse error.
type SyntaxError struct {
	Message string
	Pos     ast.Position
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Message)
}

// Parser holds parse state over one file's token stream.
type Parser struct {
	filename string
	tokens   []token.Token
	current  int
	errors   []SyntaxError
}

// Parse scans and parses source text into a Computation. Syntax errors are
// accumulated and returned alongside a best-effort AST (never nil), so
// callers that want to keep going past the front end can do so.
func Parse(filename, source string) (*ast.Computation, []SyntaxError) {
	toks := lexer.New(filename, source).ScanAll()
	p := &Parser{filename: filename, tokens: toks}
	comp := p.parseComputation()
	return comp, p.errors
}

func (p *Parser) pos(tok token.Token) ast.Position {
	return ast.Position{Filename: p.filename, Offset: tok.Pos.Offset, Line: tok.Pos.Line, Column: tok.Pos.Column}
}

func (p *Parser) endPos(tok token.Token) ast.Position {
	return ast.Position{
		Filename: p.filename,
		Offset:   tok.Pos.Offset + len(tok.Literal),
		Line:     tok.Pos.Line,
		Column:   tok.Pos.Column + len(tok.Literal),
	}
}

func (p *Parser) peek() token.Token  { return p.tokens[p.current] }
func (p *Parser) atEnd() bool        { return p.peek().Kind == token.EOF }
func (p *Parser) previous() token.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.atEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(k token.Kind) bool {
	if p.atEnd() {
		return false
	}
	return p.peek().Kind == k
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) errorAt(tok token.Token, message string) {
	p.errors = append(p.errors, SyntaxError{Message: message, Pos: p.pos(tok)})
}

// consume requires kind k to be at the current position; on mismatch it
// records a recoverable syntax error and returns an ILLEGAL placeholder
// token without advancing past the unexpected token, mirroring spec.md
// §7's "insert a placeholder ... compilation continues."
func (p *Parser) consume(k token.Kind, message string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorAt(p.peek(), message)
	return token.Token{Kind: token.ILLEGAL, Pos: p.peek().Pos}
}

func (p *Parser) consumeIdent(message string) *ast.Ident {
	tok := p.consume(token.IDENT, message)
	return &ast.Ident{Pos: p.pos(tok), EndPos: p.endPos(tok), Value: tok.Literal}
}

// synchronize skips tokens until a statement boundary, so one malformed
// statement doesn't derail the rest of the file.
func (p *Parser) synchronize() {
	p.advance()
	for !p.atEnd() {
		if p.previous().Kind == token.SEMI {
			return
		}
		switch p.peek().Kind {
		case token.LET, token.IF, token.WHILE, token.RETURN, token.CALL, token.FUNCTION, token.MAIN:
			return
		}
		p.advance()
	}
}

// parseComputation parses the whole program: leading function decls, then
// "main", an optional "var"/"array" global decl list, and
// "{ stat_sequence } .".
func (p *Parser) parseComputation() *ast.Computation {
	comp := &ast.Computation{Pos: p.pos(p.peek())}

	for p.check(token.FUNCTION) {
		fn := p.parseFuncDecl()
		if fn != nil {
			comp.Functions = append(comp.Functions, fn)
		}
	}

	mainTok := p.consume(token.MAIN, "expected 'main'")
	comp.Pos = p.pos(mainTok)

	comp.Globals = p.parseDeclList()

	p.consume(token.LBRACE, "expected '{' to start main body")
	comp.Body = p.parseStatSequence()
	p.consume(token.RBRACE, "expected '}' to close main body")
	endTok := p.consume(token.PERIOD, "expected '.' to terminate program")
	comp.EndPos = p.endPos(endTok)

	return comp
}

// parseDeclList parses zero or more "var a, b;" / "array[n] a, b;"
// declarations, stopping at the first token that starts neither.
func (p *Parser) parseDeclList() []ast.Decl {
	var decls []ast.Decl
	for p.check(token.VAR) || p.check(token.ARRAY) {
		if p.check(token.VAR) {
			decls = append(decls, p.parseVarDecl())
		} else {
			decls = append(decls, p.parseArrayDecl())
		}
	}
	return decls
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	start := p.consume(token.VAR, "expected 'var'")
	decl := &ast.VarDecl{Pos: p.pos(start)}
	decl.Names = p.parseIdentList()
	end := p.consume(token.SEMI, "expected ';' after variable declaration")
	decl.EndPos = p.endPos(end)
	return decl
}

func (p *Parser) parseArrayDecl() *ast.ArrayDecl {
	start := p.consume(token.ARRAY, "expected 'array'")
	decl := &ast.ArrayDecl{Pos: p.pos(start)}
	p.consume(token.LBRACKET, "expected '[' in array declaration")
	for {
		numTok := p.consume(token.NUMBER, "expected array dimension")
		n, _ := strconv.Atoi(numTok.Literal)
		decl.Dimensions = append(decl.Dimensions, n)
		p.consume(token.RBRACKET, "expected ']' in array declaration")
		if !p.check(token.LBRACKET) {
			break
		}
		p.advance()
	}
	decl.Names = p.parseIdentList()
	end := p.consume(token.SEMI, "expected ';' after array declaration")
	decl.EndPos = p.endPos(end)
	return decl
}

func (p *Parser) parseIdentList() []*ast.Ident {
	var idents []*ast.Ident
	idents = append(idents, p.consumeIdent("expected identifier"))
	for p.match(token.COMMA) {
		idents = append(idents, p.consumeIdent("expected identifier"))
	}
	return idents
}

// parseFuncDecl parses "function f(p1, p2); { ... };" or
// "function f(p1, p2); { ... }" (trailing ';' optional before 'main').
func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.consume(token.FUNCTION, "expected 'function'")
	fn := &ast.FuncDecl{Pos: p.pos(start)}
	fn.Name = p.consumeIdent("expected function name")

	p.consume(token.LPAREN, "expected '(' after function name")
	if !p.check(token.RPAREN) {
		fn.Params = p.parseIdentList()
	}
	p.consume(token.RPAREN, "expected ')' after function parameters")
	p.match(token.SEMI)

	fn.Locals = p.parseDeclList()

	p.consume(token.LBRACE, "expected '{' to start function body")
	fn.Body = p.parseStatSequence()
	end := p.consume(token.RBRACE, "expected '}' to close function body")
	fn.EndPos = p.endPos(end)
	p.match(token.SEMI)

	for _, s := range fn.Body {
		if containsReturn(s) {
			fn.Returns = true
			break
		}
	}
	return fn
}

func containsReturn(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.Return:
		return n.Value != nil
	case *ast.If:
		for _, s := range n.Then {
			if containsReturn(s) {
				return true
			}
		}
		for _, s := range n.Else {
			if containsReturn(s) {
				return true
			}
		}
	case *ast.While:
		for _, s := range n.Body {
			if containsReturn(s) {
				return true
			}
		}
	}
	return false
}

// parseStatSequence parses "stmt {';' stmt}", stopping before a closing
// 'fi'/'od'/'}' or EOF.
func (p *Parser) parseStatSequence() []ast.Stmt {
	var stmts []ast.Stmt
	stmts = append(stmts, p.parseStatement())
	for p.match(token.SEMI) {
		if p.check(token.FI) || p.check(token.OD) || p.check(token.RBRACE) || p.atEnd() {
			break
		}
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Stmt {
	switch {
	case p.check(token.LET):
		return p.parseAssignment()
	case p.check(token.CALL):
		return p.parseFuncCall()
	case p.check(token.IF):
		return p.parseIf()
	case p.check(token.WHILE):
		return p.parseWhile()
	case p.check(token.RETURN):
		return p.parseReturn()
	default:
		p.errorAt(p.peek(), "expected a statement")
		p.synchronize()
		return &ast.Assignment{Pos: p.pos(p.peek())} // placeholder so later passes stay well-formed
	}
}

func (p *Parser) parseAssignment() *ast.Assignment {
	start := p.consume(token.LET, "expected 'let'")
	target := p.parseDesignator()
	p.consume(token.ASSIGN, "expected '<-' in assignment")
	value := p.parseExpression()
	return &ast.Assignment{Pos: p.pos(start), EndPos: value.NodeEndPos(), Target: target, Value: value}
}

func (p *Parser) parseDesignator() *ast.Designator {
	name := p.consumeIdent("expected identifier")
	d := &ast.Designator{Pos: name.Pos, EndPos: name.EndPos, Name: name}
	if p.match(token.LBRACKET) {
		d.Index = p.parseExpression()
		end := p.consume(token.RBRACKET, "expected ']' after array index")
		d.EndPos = p.endPos(end)
	}
	return d
}

func (p *Parser) parseFuncCall() *ast.FuncCall {
	start := p.consume(token.CALL, "expected 'call'")
	name := p.consumeIdent("expected function name")
	call := &ast.FuncCall{Pos: p.pos(start), EndPos: name.EndPos, Name: name}
	if p.match(token.LPAREN) {
		if !p.check(token.RPAREN) {
			call.Args = append(call.Args, p.parseExpression())
			for p.match(token.COMMA) {
				call.Args = append(call.Args, p.parseExpression())
			}
		}
		end := p.consume(token.RPAREN, "expected ')' after call arguments")
		call.EndPos = p.endPos(end)
	}
	return call
}

func (p *Parser) parseIf() *ast.If {
	start := p.consume(token.IF, "expected 'if'")
	cond := p.parseRelation()
	p.consume(token.THEN, "expected 'then'")
	n := &ast.If{Pos: p.pos(start), Cond: cond}
	n.Then = p.parseStatSequence()
	if p.match(token.ELSE) {
		n.Else = p.parseStatSequence()
	}
	end := p.consume(token.FI, "expected 'fi' to close if")
	n.EndPos = p.endPos(end)
	return n
}

func (p *Parser) parseWhile() *ast.While {
	start := p.consume(token.WHILE, "expected 'while'")
	cond := p.parseRelation()
	p.consume(token.DO, "expected 'do'")
	n := &ast.While{Pos: p.pos(start), Cond: cond}
	n.Body = p.parseStatSequence()
	end := p.consume(token.OD, "expected 'od' to close while")
	n.EndPos = p.endPos(end)
	return n
}

func (p *Parser) parseReturn() *ast.Return {
	start := p.consume(token.RETURN, "expected 'return'")
	n := &ast.Return{Pos: p.pos(start), EndPos: p.endPos(start)}
	if !p.check(token.SEMI) && !p.check(token.FI) && !p.check(token.OD) && !p.check(token.RBRACE) && !p.atEnd() {
		n.Value = p.parseExpression()
		n.EndPos = n.Value.NodeEndPos()
	}
	return n
}

func (p *Parser) parseRelation() *ast.Relation {
	left := p.parseExpression()
	op, ok := p.parseRelOp()
	if !ok {
		p.errorAt(p.peek(), "expected a relational operator")
	}
	right := p.parseExpression()
	return &ast.Relation{Pos: left.NodePos(), EndPos: right.NodeEndPos(), Op: op, Left: left, Right: right}
}

func (p *Parser) parseRelOp() (ast.RelOp, bool) {
	switch {
	case p.match(token.EQ):
		return ast.REL_EQ, true
	case p.match(token.NEQ):
		return ast.REL_NE, true
	case p.match(token.LE):
		return ast.REL_LE, true
	case p.match(token.LT):
		return ast.REL_LT, true
	case p.match(token.GE):
		return ast.REL_GE, true
	case p.match(token.GT):
		return ast.REL_GT, true
	default:
		return "", false
	}
}

func (p *Parser) parseExpression() ast.Expr {
	start := p.peek()
	first := p.parseTerm()
	e := &ast.Expression{Pos: p.pos(start), EndPos: first.NodeEndPos(), First: first}
	for p.check(token.PLUS) || p.check(token.MINUS) {
		var op ast.AddOp
		if p.match(token.PLUS) {
			op = ast.OP_ADD
		} else {
			p.advance()
			op = ast.OP_SUB
		}
		term := p.parseTerm()
		e.Rest = append(e.Rest, &ast.ExprTail{Op: op, Term: term})
		e.EndPos = term.NodeEndPos()
	}
	if len(e.Rest) == 0 {
		return first
	}
	return e
}

func (p *Parser) parseTerm() ast.Expr {
	start := p.peek()
	first := p.parseFactor()
	t := &ast.Term{Pos: p.pos(start), EndPos: first.NodeEndPos(), First: first}
	for p.check(token.STAR) || p.check(token.SLASH) {
		var op ast.MulOp
		if p.match(token.STAR) {
			op = ast.OP_MUL
		} else {
			p.advance()
			op = ast.OP_DIV
		}
		factor := p.parseFactor()
		t.Rest = append(t.Rest, &ast.TermTail{Op: op, Factor: factor})
		t.EndPos = factor.NodeEndPos()
	}
	if len(t.Rest) == 0 {
		return first
	}
	return t
}

func (p *Parser) parseFactor() ast.Expr {
	switch {
	case p.check(token.NUMBER):
		tok := p.advance()
		n, err := strconv.Atoi(tok.Literal)
		if err != nil {
			p.errorAt(tok, "malformed integer literal")
		}
		return &ast.Number{Pos: p.pos(tok), EndPos: p.endPos(tok), Value: n}
	case p.check(token.LPAREN):
		start := p.advance()
		inner := p.parseExpression()
		end := p.consume(token.RPAREN, "expected ')' to close parenthesized expression")
		return &ast.Factor{Pos: p.pos(start), EndPos: p.endPos(end), Paren: inner}
	case p.check(token.CALL):
		return p.parseFuncCall()
	case p.check(token.IDENT):
		return p.parseDesignator()
	default:
		p.errorAt(p.peek(), "expected an expression")
		tok := p.peek()
		return &ast.Number{Pos: p.pos(tok), EndPos: p.pos(tok), Value: 0}
	}
}
