// Package ui serves a small HTML dashboard over a live *kernel.Kernel,
// the way arctir-proctor's ui package served one over a live
// plib.Inspector — except here there is nothing to re-scan: the
// process table is already being mutated continuously by the running
// simulation, so "refresh" just takes a fresh PS() snapshot rather than
// re-reading the OS.
package ui

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eduos/schedcore/kernel"
)

const (
	port              = ":8080"
	refreshPath       = "/refresh"
	processesPath     = "/process/"
	processesTreePath = "/tree/"
)

type UI struct {
	k           *kernel.Kernel
	data        Data
	refreshLock sync.Mutex
}

type Data struct {
	LastRefresh time.Time
	PS          map[int]kernel.ProcessSnapshot
}

type DetailKV struct {
	Field string
	Value string
}

// New builds a dashboard over k. k must already be booted (or about to be)
// for the snapshots served here to show anything but the init process.
func New(k *kernel.Kernel) *UI {
	return &UI{k: k, data: Data{}}
}

func (ui *UI) RunUI() {
	http.HandleFunc("/", ui.handleAllProcesses)
	http.HandleFunc(refreshPath, ui.handleRefresh)
	http.HandleFunc(processesPath, ui.handleProcessDetails)
	http.HandleFunc(processesTreePath, ui.handleProcessTree)

	log.Printf("serving at %s", port)
	panic(http.ListenAndServe(port, nil))
}

func (ui *UI) snapshot() map[int]kernel.ProcessSnapshot {
	out := map[int]kernel.ProcessSnapshot{}
	for _, p := range ui.k.PS() {
		out[p.PID] = p
	}
	return out
}

func (ui *UI) handleAllProcesses(w http.ResponseWriter, r *http.Request) {
	ui.refreshLock.Lock()
	defer ui.refreshLock.Unlock()
	ui.data.PS = ui.snapshot()
	ui.data.LastRefresh = time.Now()

	t, err := createTemplate(allProcessesView)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, ui.data); err != nil {
		writeFailure(w, err)
	}
}

func (ui *UI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ui.refreshLock.Lock()
	ui.data.PS = ui.snapshot()
	ui.data.LastRefresh = time.Now()
	ui.refreshLock.Unlock()
	log.Println("refreshed process snapshot")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (ui *UI) handleProcessDetails(w http.ResponseWriter, r *http.Request) {
	pidString := strings.TrimPrefix(r.URL.Path, processesPath)
	pid, err := strconv.Atoi(pidString)
	if err != nil {
		writeFailure(w, err)
		return
	}

	ui.refreshLock.Lock()
	proc, ok := ui.data.PS[pid]
	ui.refreshLock.Unlock()
	if !ok {
		writeFailure(w, fmt.Errorf("process %d does not exist", pid))
		return
	}
	t, err := createTemplate(viewProcessDetails)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, proc); err != nil {
		writeFailure(w, err)
	}
}

func (ui *UI) handleProcessTree(w http.ResponseWriter, r *http.Request) {
	pidString := strings.TrimPrefix(r.URL.Path, processesTreePath)
	pid, err := strconv.Atoi(pidString)
	if err != nil {
		writeFailure(w, err)
		return
	}

	ui.refreshLock.Lock()
	_, ok := ui.data.PS[pid]
	hierarchy := getProcessHierarchy(ui.data.PS, pid)
	ui.refreshLock.Unlock()
	if !ok {
		writeFailure(w, fmt.Errorf("process %d does not exist", pid))
		return
	}

	t, err := createTemplate(viewTreeDetails)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := t.Execute(w, hierarchy); err != nil {
		writeFailure(w, err)
	}
}

// getProcessDetails returns a slice containing the field/value pairs of a
// ProcessSnapshot, via reflection, for the detail view's table.
func getProcessDetails(p kernel.ProcessSnapshot) []DetailKV {
	result := []DetailKV{}
	t := reflect.TypeOf(p)
	v := reflect.ValueOf(p)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		result = append(result, DetailKV{field.Name, fmt.Sprintf("%v", v.Field(i).Interface())})
	}
	return result
}

// getProcessHierarchy returns a list of process snapshots starting with
// pid and ending at the most distant ancestor still present in ps.
func getProcessHierarchy(ps map[int]kernel.ProcessSnapshot, pid int) []kernel.ProcessSnapshot {
	result := []kernel.ProcessSnapshot{}

	current, ok := ps[pid]
	if !ok {
		return result
	}
	for {
		result = append(result, current)
		parent, ok := ps[current.ParentPID]
		if !ok || parent.PID == current.PID {
			break
		}
		current = parent
	}

	return result
}

// createTemplate returns a final template with temp wrapped by uiHeader
// and uiFooter.
func createTemplate(temp string) (*template.Template, error) {
	t, err := template.New("response").
		Funcs(template.FuncMap{"pDeets": getProcessDetails}).
		Parse(uiHeader + temp + uiFooter)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func writeFailure(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	t, _ := createTemplate(errorView)
	t.Execute(w, err.Error())
}
