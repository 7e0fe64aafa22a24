package main

import "github.com/ValentinKolb/svsock/cmd"

func main() {
	cmd.Execute()
}
