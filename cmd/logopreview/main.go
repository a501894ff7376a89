package main

import (
	"fmt"
)

// ANSI color helpers
const (
	rose  = "\033[38;2;231;84;128m"
	gold  = "\033[38;2;230;200;120m"
	gray  = "\033[38;5;242m"
	white = "\033[1;37m"
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"
)

func main() {
	info1 := white + "风月 Simulator " + gray + "v0.1.0" + reset
	info2 := gray + "localhost:8000 · default" + reset

	fmt.Println()
	fmt.Println(bold + "═══ Pick a welcome logo ═══" + reset)

	// ── Option A: Crescent and blossom ──
	fmt.Println()
	fmt.Println(dim + "Option A — Crescent and blossom" + reset)
	fmt.Println()
	fmt.Printf("    %s▄█▀%s  %s❀%s       %s\n", gold, reset, rose, reset, info1)
	fmt.Printf("    %s█%s   %s❀❀%s      %s\n", gold, reset, rose, reset, info2)
	fmt.Printf("    %s▀█▄%s  %s❀%s\n", gold, reset, rose, reset)

	// ── Option B: Full moon with branch ──
	fmt.Println()
	fmt.Println(dim + "Option B — Full moon with branch" + reset)
	fmt.Println()
	fmt.Printf("   %s▄▀▀▀▄%s %s╱❀%s     %s\n", gold, reset, rose, reset, info1)
	fmt.Printf("   %s▌   ▐%s%s❀╱%s      %s\n", gold, reset, rose, reset, info2)
	fmt.Printf("   %s▀▄▄▄▀%s\n", gold, reset)

	// ── Option C: Characters only ──
	fmt.Println()
	fmt.Println(dim + "Option C — Characters only" + reset)
	fmt.Println()
	fmt.Printf("   %s風%s %s月%s        %s\n", rose+bold, reset, gold+bold, reset, info1)
	fmt.Printf("              %s\n", info2)

	// ── Option D: Minimal dot moon ──
	fmt.Println()
	fmt.Println(dim + "Option D — Minimal dot moon" + reset)
	fmt.Println()
	fmt.Printf("    %s.:::::.%s      %s\n", gold, reset, info1)
	fmt.Printf("   %s::::::::%s %s%%%s   %s\n", gold, reset, rose, reset, info2)
	fmt.Printf("    %s':::::'%s %s%%%%%s\n", gold, reset, rose, reset)

	fmt.Println()
	fmt.Println(dim + "Which one? (A/B/C/D)" + reset)
	fmt.Println()
}
