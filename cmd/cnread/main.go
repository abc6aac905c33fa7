package main

import "github.com/MeKo-Tech/cnread/cmd/cnread/cmd"

func main() {
	cmd.Execute()
}
