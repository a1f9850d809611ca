//go:build windows

package a11y

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

// UI Automation COM identifiers.
var (
	clsidCUIAutomation = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation   = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
)

// UIA property ids for GetCurrentPropertyValue.
const (
	propName           = 30005
	propAcceleratorKey = 30006
	propAccessKey      = 30007
)

// maxTreeDepth bounds the walk; hint surfaces only need the top of the
// tree, and deep UIA traversals are expensive.
const maxTreeDepth = 6

// dumpTree activates the UI Automation COM server and walks the control
// view, rendering elements into the same XML-ish shape the parser expects
// (name + keyshortcuts attributes).
func dumpTree(ctx context.Context) (string, error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		// S_FALSE means COM was already initialised on this thread.
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != 1 {
			return "", fmt.Errorf("com init: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := ole.CreateInstance(clsidCUIAutomation, iidIUIAutomation)
	if err != nil {
		return "", fmt.Errorf("create UIAutomation instance: %w", err)
	}
	uia := (*iUIAutomation)(unsafe.Pointer(unknown))
	defer uia.Release()

	root, err := uia.getRootElement()
	if err != nil {
		return "", fmt.Errorf("get root element: %w", err)
	}
	defer root.Release()

	walker, err := uia.controlViewWalker()
	if err != nil {
		return "", fmt.Errorf("get control view walker: %w", err)
	}
	defer walker.Release()

	var sb strings.Builder
	sb.WriteString("<tree>\n")
	renderElement(ctx, walker, root, 0, &sb)
	sb.WriteString("</tree>\n")
	return sb.String(), nil
}

func renderElement(ctx context.Context, walker *iUIAutomationTreeWalker, el *iUIAutomationElement, depth int, sb *strings.Builder) {
	if depth > maxTreeDepth || ctx.Err() != nil {
		return
	}

	name := el.stringProperty(propName)
	shortcut := el.stringProperty(propAcceleratorKey)
	if shortcut == "" {
		shortcut = el.stringProperty(propAccessKey)
	}
	if name != "" || shortcut != "" {
		fmt.Fprintf(sb, `<node name=%q keyshortcuts=%q/>`+"\n", name, shortcut)
	}

	child, err := walker.firstChild(el)
	for err == nil && child != nil {
		renderElement(ctx, walker, child, depth+1, sb)
		next, nerr := walker.nextSibling(child)
		child.Release()
		child, err = next, nerr
	}
}

// Minimal vtable bindings for the three UIA interfaces the walk touches.
// go-ole carries the COM activation and VARIANT plumbing; the UIA
// interfaces are not IDispatch-based so the calls go through the raw
// vtables.

type iUIAutomation struct{ ole.IUnknown }

type iUIAutomationVtbl struct {
	ole.IUnknownVtbl
	CompareElements             uintptr
	CompareRuntimeIds           uintptr
	GetRootElement              uintptr
	ElementFromHandle           uintptr
	ElementFromPoint            uintptr
	GetFocusedElement           uintptr
	GetRootElementBuildCache    uintptr
	ElementFromHandleBuildCache uintptr
	ElementFromPointBuildCache  uintptr
	GetFocusedElementBuildCache uintptr
	CreateTreeWalker            uintptr
	GetControlViewWalker        uintptr
}

func (u *iUIAutomation) vtbl() *iUIAutomationVtbl {
	return (*iUIAutomationVtbl)(unsafe.Pointer(u.RawVTable))
}

func (u *iUIAutomation) getRootElement() (*iUIAutomationElement, error) {
	var el *iUIAutomationElement
	hr, _, _ := syscall.SyscallN(u.vtbl().GetRootElement,
		uintptr(unsafe.Pointer(u)), uintptr(unsafe.Pointer(&el)))
	if hr != 0 || el == nil {
		return nil, ole.NewError(hr)
	}
	return el, nil
}

func (u *iUIAutomation) controlViewWalker() (*iUIAutomationTreeWalker, error) {
	var walker *iUIAutomationTreeWalker
	hr, _, _ := syscall.SyscallN(u.vtbl().GetControlViewWalker,
		uintptr(unsafe.Pointer(u)), uintptr(unsafe.Pointer(&walker)))
	if hr != 0 || walker == nil {
		return nil, ole.NewError(hr)
	}
	return walker, nil
}

type iUIAutomationElement struct{ ole.IUnknown }

type iUIAutomationElementVtbl struct {
	ole.IUnknownVtbl
	SetFocus                uintptr
	GetRuntimeId            uintptr
	FindFirst               uintptr
	FindAll                 uintptr
	FindFirstBuildCache     uintptr
	FindAllBuildCache       uintptr
	BuildUpdatedCache       uintptr
	GetCurrentPropertyValue uintptr
}

func (e *iUIAutomationElement) vtbl() *iUIAutomationElementVtbl {
	return (*iUIAutomationElementVtbl)(unsafe.Pointer(e.RawVTable))
}

// stringProperty reads one UIA property as a string, returning "" on any
// failure: a missing property is normal for most elements.
func (e *iUIAutomationElement) stringProperty(propertyID int) string {
	var v ole.VARIANT
	ole.VariantInit(&v)
	hr, _, _ := syscall.SyscallN(e.vtbl().GetCurrentPropertyValue,
		uintptr(unsafe.Pointer(e)), uintptr(propertyID), uintptr(unsafe.Pointer(&v)))
	if hr != 0 {
		return ""
	}
	defer ole.VariantClear(&v)
	if v.VT != ole.VT_BSTR {
		return ""
	}
	return v.ToString()
}

type iUIAutomationTreeWalker struct{ ole.IUnknown }

type iUIAutomationTreeWalkerVtbl struct {
	ole.IUnknownVtbl
	GetParentElement          uintptr
	GetFirstChildElement      uintptr
	GetLastChildElement       uintptr
	GetNextSiblingElement     uintptr
	GetPreviousSiblingElement uintptr
}

func (w *iUIAutomationTreeWalker) vtbl() *iUIAutomationTreeWalkerVtbl {
	return (*iUIAutomationTreeWalkerVtbl)(unsafe.Pointer(w.RawVTable))
}

func (w *iUIAutomationTreeWalker) firstChild(el *iUIAutomationElement) (*iUIAutomationElement, error) {
	var child *iUIAutomationElement
	hr, _, _ := syscall.SyscallN(w.vtbl().GetFirstChildElement,
		uintptr(unsafe.Pointer(w)), uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&child)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return child, nil
}

func (w *iUIAutomationTreeWalker) nextSibling(el *iUIAutomationElement) (*iUIAutomationElement, error) {
	var sibling *iUIAutomationElement
	hr, _, _ := syscall.SyscallN(w.vtbl().GetNextSiblingElement,
		uintptr(unsafe.Pointer(w)), uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&sibling)))
	if hr != 0 {
		return nil, ole.NewError(hr)
	}
	return sibling, nil
}
