//go:build windows

package main

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modKernel32 = windows.NewLazySystemDLL("kernel32.dll")
	modUser32   = windows.NewLazySystemDLL("user32.dll")

	procGetConsoleWindow      = modKernel32.NewProc("GetConsoleWindow")
	procGetConsoleProcessList = modKernel32.NewProc("GetConsoleProcessList")
	procFreeConsole           = modKernel32.NewProc("FreeConsole")
	procShowWindow            = modUser32.NewProc("ShowWindow")
)

// hideAndDetachConsoleForGUI drops the console window Windows opens when the
// tray app is started from Explorer. A console shared with a parent shell is
// left visible; the process only detaches from it.
func hideAndDetachConsoleForGUI() {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return
	}
	if consoleOwnedAlone() {
		_, _, _ = procShowWindow.Call(hwnd, windows.SW_HIDE)
	}
	_, _, _ = procFreeConsole.Call()
}

func consoleOwnedAlone() bool {
	var pids [2]uint32
	n, _, _ := procGetConsoleProcessList.Call(uintptr(unsafe.Pointer(&pids[0])), uintptr(len(pids)))
	return n == 1
}
