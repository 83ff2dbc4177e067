// Command brancher runs branch operations across a set of git repositories.
package main

func main() {
	Execute()
}
