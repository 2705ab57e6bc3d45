package scheduler

// Default submission scripts, rendered with text/template and the sprig
// function map. Keys follow the queue configuration names.

const slurmTemplate = `#!/bin/bash
#SBATCH --output=time.out
#SBATCH --job-name={{.job_name}}
#SBATCH --chdir={{.working_directory}}
#SBATCH --get-user-env=L
{{- with .partition}}
#SBATCH --partition={{.}}
{{- end}}
{{- if .run_time_max}}
#SBATCH --time={{max 1 (div .run_time_max 60)}}
{{- end}}
{{- if .dependency_list}}
#SBATCH --dependency=afterok:{{join "," .dependency_list}}
{{- end}}
{{- if .memory_max}}
#SBATCH --mem={{.memory_max}}G
{{- end}}
#SBATCH --cpus-per-task={{.cores}}

{{.command}}`

const sgeTemplate = `#!/bin/bash
#$ -N {{.job_name}}
#$ -wd {{.working_directory}}
{{- if .cores}}
#$ -pe {{default "smp" .partition}} {{.cores}}
{{- end}}
{{- if .memory_max}}
#$ -l h_vmem={{.memory_max}}
{{- end}}
{{- if .run_time_max}}
#$ -l h_rt={{.run_time_max}}
{{- end}}
#$ -o time.out
#$ -e error.out

{{.command}}`

const torqueTemplate = `#!/bin/bash
#PBS -N {{.job_name}}
#PBS -wd {{.working_directory}}
{{- if .cores}}
#PBS -l ncpus={{.cores}}
{{- end}}
{{- if .memory_max}}
#PBS -l mem={{.memory_max}}
{{- end}}
{{- if .run_time_max}}
#PBS -l walltime={{.run_time_max}}
{{- end}}
{{- with .partition}}
#PBS -q {{.}}
{{- end}}
#PBS -j oe
#PBS -o time.out

{{.command}}`

const lsfTemplate = `#!/bin/bash
{{- with .partition}}
#BSUB -q {{.}}
{{- end}}
#BSUB -J {{.job_name}}
#BSUB -o time.out
#BSUB -n {{.cores}}
#BSUB -cwd {{.working_directory}}
#BSUB -e error.out
{{- if .run_time_max}}
#BSUB -W {{.run_time_max}}
{{- end}}
{{- if .memory_max}}
#BSUB -M {{.memory_max}}
{{- end}}

{{.command}}`

const moabTemplate = `#!/bin/bash

{{.command}}`

const fluxTemplate = `#!/bin/bash
# flux:--job-name={{.job_name}}
# flux: --env=CORES={{.cores}}
# flux: --output=time.out
# flux: --error=error.out
# flux: -n {{.cores}}
{{- if .run_time_max}}
# flux: -t {{max 1 (div .run_time_max 60)}}
{{- end}}
{{- range .dependency_list}}
# flux: --dependency=afterok:{{.}}
{{- end}}

{{.command}}`
