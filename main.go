package main

import "github.com/hexward/hexward/cmd/hexward"

func main() { hexward.Execute() }
